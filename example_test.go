package localmcp_test

import (
	"context"
	"log"
	"os"
	"os/signal"

	localmcp "github.com/liunian321/local-mcp-servers"
	"github.com/liunian321/local-mcp-servers/pkg/server"
)

func Example() {
	s := localmcp.NewServer(localmcp.ToolOptions{}, server.WithName("my_tools"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := s.ListenAndServe(ctx, "127.0.0.1:8080"); err != nil {
		log.Fatal(err)
	}
}
