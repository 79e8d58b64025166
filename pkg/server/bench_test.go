package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

// BenchmarkServerOperations benchmarks dispatch and the HTTP surface
func BenchmarkServerOperations(b *testing.B) {
	b.Run("Dispatch/initialize", func(b *testing.B) {
		benchmarkDispatch(b, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	})

	b.Run("Dispatch/tools_call", func(b *testing.B) {
		benchmarkDispatch(b, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"input":"test"}}}`)
	})

	b.Run("HTTP/generic", func(b *testing.B) {
		benchmarkHTTP(b, 1)
	})

	b.Run("ConcurrentRequests/10", func(b *testing.B) {
		benchmarkHTTP(b, 10)
	})

	b.Run("ConcurrentRequests/100", func(b *testing.B) {
		benchmarkHTTP(b, 100)
	})
}

func benchmarkDispatch(b *testing.B, body string) {
	ctx := context.Background()
	s := New(testRegistry())

	req, err := protocol.DecodeLenient([]byte(body))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if resp := s.Dispatch(ctx, req); resp == nil {
			b.Fatal("no response")
		}
	}
}

// benchmarkHTTP posts tools/call from the given number of goroutines
func benchmarkHTTP(b *testing.B, concurrency int) {
	srv := httptest.NewServer(New(testRegistry()).Handler())
	defer srv.Close()

	client := srv.Client()
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"input":"test"}}}`

	b.ResetTimer()
	b.ReportAllocs()

	var wg sync.WaitGroup
	perWorker := b.N / concurrency
	if perWorker == 0 {
		perWorker = 1
	}
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				resp, err := client.Post(srv.URL+"/", "application/json", strings.NewReader(body))
				if err != nil {
					b.Error(err)
					return
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					b.Errorf("status %d", resp.StatusCode)
					return
				}
			}
		}()
	}
	wg.Wait()
}
