// Package sftptest runs an in-memory SFTP server for tests.
package sftptest

import (
	"net"
	"testing"

	"github.com/pkg/sftp"
)

// NewClient starts an in-memory SFTP request server connected through a pipe
// and returns a client for it. Both are shut down when tb finishes.
func NewClient(tb testing.TB) *sftp.Client {
	tb.Helper()

	serverConn, clientConn := net.Pipe()

	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go server.Serve()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		server.Close()
		tb.Fatalf("NewClientPipe failed: %v", err)
	}

	tb.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return client
}
