package tools

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

// DefaultMaxFileSize caps how much of a file cat file returns
const DefaultMaxFileSize int64 = 1 << 20

type catFilePayload struct {
	FilePath  string `json:"file_path"`
	Contents  string `json:"contents,omitempty"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
	Binary    bool   `json:"binary"`
	Status    string `json:"status"`
}

func (p catFilePayload) ToolStatus() string { return p.Status }

// CatFileTool returns the contents of a file, up to maxSize bytes. Files that
// are not UTF-8 text come back base64 encoded in a resource block.
func CatFileTool(maxSize int64) Entry {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	return Entry{
		Tool: protocol.Tool{
			Name:        "cat file",
			Title:       "Read file",
			Description: "Read the contents of a file",
			InputSchema: protocol.ObjectSchema(map[string]*jsonschema.Schema{
				"file_path": {
					Type:        "string",
					Description: "Path of the file to read",
				},
			}, "file_path"),
			Annotations: &protocol.ToolAnnotations{ReadOnlyHint: boolPtr(true)},
		},
		Handler: SyncHandler(func(args json.RawMessage) (*protocol.CallToolResult, error) {
			return catFile(args, maxSize), nil
		}),
	}
}

func catFile(args json.RawMessage, maxSize int64) *protocol.CallToolResult {
	path, res := pathArg(args, "file_path")
	if res != nil {
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		return failure(mcperrors.FileError("read", path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return failure(mcperrors.FileError("read", path, err))
	}
	if info.IsDir() {
		return failure(mcperrors.InvalidParameter("file_path", path, "a regular file, not a directory"))
	}

	data, err := io.ReadAll(io.LimitReader(f, maxSize))
	if err != nil {
		return failure(mcperrors.FileError("read", path, err))
	}

	payload := catFilePayload{
		FilePath:  path,
		Size:      info.Size(),
		Truncated: info.Size() > int64(len(data)),
		Status:    mcperrors.StatusSuccess,
	}

	if !utf8.Valid(data) {
		payload.Binary = true
		summary := fmt.Sprintf("%s is a binary file of %d bytes", path, info.Size())
		return &protocol.CallToolResult{
			Content: []protocol.Content{
				protocol.TextContent(summary),
				{
					Type:     protocol.ContentTypeResource,
					Data:     base64.StdEncoding.EncodeToString(data),
					MimeType: http.DetectContentType(data),
				},
			},
			StructuredContent: payload,
		}
	}

	payload.Contents = string(data)
	return protocol.NewToolResult(payload.Contents, payload, false)
}

type fileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
	IsDir    bool   `json:"is_dir"`
}

type listFilesPayload struct {
	DirPath string     `json:"dir_path"`
	Files   []fileInfo `json:"files"`
	Status  string     `json:"status"`
}

func (p listFilesPayload) ToolStatus() string { return p.Status }

// ListFilesTool lists the entries of a directory, sorted by name
func ListFilesTool() Entry {
	return Entry{
		Tool: protocol.Tool{
			Name:        "list files",
			Title:       "List files",
			Description: "List the files of a directory with size, modification time and type",
			InputSchema: protocol.ObjectSchema(map[string]*jsonschema.Schema{
				"dir_path": {
					Type:        "string",
					Description: "Path of the directory to list",
				},
			}, "dir_path"),
			Annotations: &protocol.ToolAnnotations{ReadOnlyHint: boolPtr(true)},
		},
		Handler: SyncHandler(func(args json.RawMessage) (*protocol.CallToolResult, error) {
			return listFiles(args)
		}),
	}
}

func listFiles(args json.RawMessage) (*protocol.CallToolResult, error) {
	dir, res := pathArg(args, "dir_path")
	if res != nil {
		return res, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return failure(mcperrors.FileError("list", dir, err)), nil
	}

	files := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, fileInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
			IsDir:    e.IsDir(),
		})
	}

	text, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}

	return protocol.NewToolResult(string(text), listFilesPayload{
		DirPath: dir,
		Files:   files,
		Status:  mcperrors.StatusSuccess,
	}, false), nil
}

// pathArg extracts a required path argument. A non-nil result is the error
// to return to the caller.
func pathArg(args json.RawMessage, name string) (string, *protocol.CallToolResult) {
	if !hasArgs(args) {
		return "", failure(mcperrors.MissingParameter(name))
	}

	fields := map[string]interface{}{}
	if err := decodeArgs(args, &fields); err != nil {
		return "", failure(mcperrors.InvalidParameter("arguments", string(args), "object").WithDetail(err.Error()))
	}

	raw, ok := fields[name]
	if !ok {
		return "", failure(mcperrors.MissingParameter(name))
	}
	path, ok := raw.(string)
	if !ok || path == "" {
		return "", failure(mcperrors.InvalidParameter(name, raw, "non-empty string"))
	}
	return path, nil
}
