package mcp

// ToolDefinition describes a tool and its JSON input schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "description": description}
}

var sessionIDProp = stringProp("Context-keeper session ID (omit to use _meta.session_id)")

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Sessions
		{
			Name:        "create_session",
			Description: "Create a new context session. Returns the session_id to pass to every other tool.",
			InputSchema: objectSchema(map[string]any{
				"metadata": map[string]any{
					"type":                 "object",
					"description":          "Free-form string labels stored with the session",
					"additionalProperties": map[string]any{"type": "string"},
				},
			}),
		},
		{
			Name:        "get_session",
			Description: "Get a session's state: created time, last activity, status and file count",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
			}),
		},

		// Files
		{
			Name:        "associate_file",
			Description: "Associate a file with the session, or refresh an existing association",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
				"file_path":  stringProp("File path; relative paths resolve against the workspace root"),
				"language":   stringProp("Language override (detected from the extension otherwise)"),
				"content":    stringProp("Current file content, used for size and summary metadata"),
			}, "file_path"),
		},
		{
			Name:        "dissociate_file",
			Description: "Remove a file from the session along with its edit history and discussions",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
				"file_path":  stringProp("File path"),
			}, "file_path"),
		},
		{
			Name:        "list_files",
			Description: "List the session's associated files, most recently accessed first",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
				"limit":      intProp("Maximum number of files (0 for all)"),
			}),
		},

		// Edits
		{
			Name:        "record_edit",
			Description: "Record an edit to an associated file as a unified diff. If diff is omitted, new_content (and optionally old_content) is diffed server-side.",
			InputSchema: objectSchema(map[string]any{
				"session_id":  sessionIDProp,
				"file_path":   stringProp("Associated file path"),
				"diff":        stringProp("Unified diff text"),
				"old_content": stringProp("File content before the edit"),
				"new_content": stringProp("File content after the edit"),
				"pre_hash":    stringProp("sha256 hex of the content before the edit"),
				"post_hash":   stringProp("sha256 hex of the content after the edit"),
			}, "file_path"),
		},
		{
			Name:        "recent_edits",
			Description: "List recent edits across the session (newest first), or one file's history in sequence order",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
				"file_path":  stringProp("Restrict to one file's history"),
				"limit":      intProp("Maximum number of edits"),
			}),
		},
		{
			Name:        "compute_diff",
			Description: "Compute a unified diff between two contents without recording it",
			InputSchema: objectSchema(map[string]any{
				"old_content": stringProp("Original content"),
				"new_content": stringProp("Updated content"),
				"label":       stringProp("File label for the diff headers"),
			}, "old_content", "new_content"),
		},

		// Discussions
		{
			Name:        "link_discussion",
			Description: "Attach a discussion summary (message, memory or decision) to an associated file",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionIDProp,
				"file_path":  stringProp("Associated file path"),
				"type": map[string]any{
					"type":        "string",
					"enum":        []string{"message", "memory", "decision"},
					"description": "Discussion type (default message)",
				},
				"summary": stringProp("Short summary of the discussion"),
			}, "file_path", "summary"),
		},

		// Context
		{
			Name:        "programming_context",
			Description: "Assemble the programming context for a task: associated files, recent edits, relevant snippets and statistics",
			InputSchema: objectSchema(map[string]any{
				"session_id":   sessionIDProp,
				"query":        stringProp("What you are working on"),
				"max_files":    intProp("Maximum files to include"),
				"max_edits":    intProp("Maximum recent edits to include"),
				"max_snippets": intProp("Maximum snippets to include"),
			}, "query"),
		},
	}
}
