// Command fetch retrieves a URL over an established TLS connection using
// streamio and prints the raw HTTP response. It demonstrates the intended
// split of responsibilities: crypto/tls owns the handshake, streamio owns
// draining a response of unknown length, and the application interprets
// the bytes.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Zereker/streamio"
)

func main() {
	host := flag.String("host", "example.com", "server to connect to")
	path := flag.String("path", "/", "path to request")
	flag.Parse()

	conn, err := tls.Dial("tcp", *host+":443", &tls.Config{ServerName: *host})
	if err != nil {
		slog.Error("dial failed", "host", *host, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	c, err := streamio.NewConn(conn)
	if err != nil {
		slog.Error("failed to wrap connection", "error", err)
		os.Exit(1)
	}

	request := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", *path, *host)
	if _, err = c.WriteMessage([]byte(request)); err != nil {
		slog.Error("failed to write request", "error", err)
		os.Exit(1)
	}

	message, err := c.ReadMessage()
	if err != nil {
		// Partial bytes are still delivered alongside the error.
		slog.Error("read failed", "bytes", message.Length(), "error", err)
		os.Exit(1)
	}

	if message.ConnectionEnded() {
		slog.Warn("server closed the connection without responding")
		return
	}

	os.Stdout.Write(message.Body())
}
