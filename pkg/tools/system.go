package tools

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"runtime"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

type systemInfo struct {
	OS     string `json:"os"`
	Arch   string `json:"arch"`
	NumCPU int    `json:"num_cpu"`
}

// SystemTypeTool reports the operating system and architecture of the host
func SystemTypeTool() Entry {
	return Entry{
		Tool: protocol.Tool{
			Name:        "get_system_type",
			Title:       "System type",
			Description: "Report the operating system and CPU architecture of the host",
			InputSchema: protocol.ObjectSchema(nil),
			Annotations: &protocol.ToolAnnotations{ReadOnlyHint: boolPtr(true)},
		},
		Handler: SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
			info := systemInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, NumCPU: runtime.NumCPU()}
			text, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return nil, err
			}
			return protocol.NewToolResult(string(text), info, false), nil
		}),
	}
}

// TimeLayout is the format of get_current_time
const TimeLayout = "2006-01-02 15:04:05"

type currentTime struct {
	Timestamp string `json:"timestamp"`
	Format    string `json:"format"`
	Timezone  string `json:"timezone"`
}

// CurrentTimeTool reports the local time read from now
func CurrentTimeTool(now func() time.Time) Entry {
	if now == nil {
		now = time.Now
	}

	return Entry{
		Tool: protocol.Tool{
			Name:        "get_current_time",
			Title:       "Current time",
			Description: "Report the current local time as YYYY-MM-DD HH:MM:SS",
			InputSchema: protocol.ObjectSchema(nil),
			Annotations: &protocol.ToolAnnotations{ReadOnlyHint: boolPtr(true)},
		},
		Handler: SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
			t := now()
			zone, _ := t.Zone()
			stamp := t.Format(TimeLayout)
			return protocol.NewToolResult(stamp, currentTime{
				Timestamp: stamp,
				Format:    "YYYY-MM-DD HH:MM:SS",
				Timezone:  zone,
			}, false), nil
		}),
	}
}

const (
	defaultRandomLength = 16
	maxRandomLength     = 4096

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

type randomStringArgs struct {
	Length         *int `json:"length"`
	IncludeSpecial bool `json:"include_special"`
}

type randomStringPayload struct {
	Value  string `json:"value"`
	Length int    `json:"length"`
	Status string `json:"status"`
}

func (p randomStringPayload) ToolStatus() string { return p.Status }

// RandomStringTool generates a random string from a crypto random source
func RandomStringTool() Entry {
	return Entry{
		Tool: protocol.Tool{
			Name:        "random string",
			Title:       "Random string",
			Description: "Generate a random alphanumeric string, optionally with special characters",
			InputSchema: protocol.ObjectSchema(map[string]*jsonschema.Schema{
				"length": {
					Type:        "integer",
					Description: "Length of the string (1-4096, default 16)",
					Minimum:     float(1),
					Maximum:     float(maxRandomLength),
				},
				"include_special": {
					Type:        "boolean",
					Description: "Include special characters (default false)",
				},
			}),
		},
		Handler: SyncHandler(func(args json.RawMessage) (*protocol.CallToolResult, error) {
			return randomString(args)
		}),
	}
}

func randomString(args json.RawMessage) (*protocol.CallToolResult, error) {
	var a randomStringArgs
	if hasArgs(args) {
		if err := decodeArgs(args, &a); err != nil {
			return failure(mcperrors.InvalidParameter("arguments", string(args), "object with optional length and include_special").
				WithDetail(err.Error())), nil
		}
	}

	length := defaultRandomLength
	if a.Length != nil {
		length = *a.Length
	}
	if length < 1 || length > maxRandomLength {
		return failure(mcperrors.InvalidParameter("length", length, fmt.Sprintf("integer between 1 and %d", maxRandomLength))), nil
	}

	charset := alphanumeric
	if a.IncludeSpecial {
		charset += specialChars
	}

	value, err := generate(length, charset)
	if err != nil {
		return nil, err
	}

	return protocol.NewToolResult(value, randomStringPayload{
		Value:  value,
		Length: length,
		Status: mcperrors.StatusSuccess,
	}, false), nil
}

func generate(length int, charset string) (string, error) {
	limit := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
