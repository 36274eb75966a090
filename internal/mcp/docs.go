package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `context-keeper remembers which files a coding session touches and how they changed.

Core concepts:
- Session: a scoped container; expires after a period of inactivity. Every call that names it keeps it alive.
- Association: a file linked to a session. Paths are normalized, so spellings of the same file collapse.
- Edit: a unified diff recorded against an associated file, numbered 1, 2, 3... per file.
- Discussion: a short message, memory or decision attached to a file.

Default workflow:
1) create_session once per task; keep the session_id (or pass it as _meta.session_id).
2) associate_file for each file you read or change.
3) record_edit after each change (send a diff, or new_content and let the server diff).
4) link_discussion to pin decisions to the files they affect.
5) programming_context with a short query whenever you need to re-orient.

Docs:
- context-keeper://docs/workflow
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "context-keeper://docs/workflow",
		Name:        "docs_workflow",
		Title:       "context-keeper workflow",
		Description: "How sessions, associations, edits and context queries fit together, and which errors to expect.",
		Content: `# context-keeper workflow

## Lifecycle

1. ` + "`create_session`" + ` returns ` + "`session_id`" + `.
2. ` + "`associate_file`" + ` links a file. Associating it again refreshes ` + "`last_accessed`" + `; it never duplicates.
3. ` + "`record_edit`" + ` appends a diff to the file's history. Sequence numbers start at 1 and have no gaps.
   Old records beyond the retention limit are dropped, but numbering continues.
4. ` + "`programming_context`" + ` returns associated files (most recently accessed first), recent edits (newest first),
   relevant snippets and statistics.

## Errors

- ` + "`SESSION_NOT_FOUND`" + `: the session never existed or has expired. Create a new one.
- ` + "`FILE_NOT_ASSOCIATED`" + `: call ` + "`associate_file`" + ` before recording edits or discussions.
- ` + "`INVALID_DIFF`" + `: the payload was not a unified diff; nothing was recorded.
- ` + "`INVALID_INPUT`" + `: a malformed path, hash or empty query.

## Degraded context

Snippet search is best-effort. When it fails or times out the context is still returned with
` + "`relevantSnippets`" + ` empty and ` + "`degraded`" + ` set to true.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
