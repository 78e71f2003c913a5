package pillar

import (
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// SSHTunnel forwards a local TCP port to a remote address through an SSH
// connection. Used to reach the master's pillar cache Redis, which binds
// to localhost on the master and is not exposed on the network.
type SSHTunnel struct {
	localAddr  string // "127.0.0.1:<port>"
	remoteAddr string
	sshClient  *ssh.Client
	listener   net.Listener
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewSSHTunnel dials SSH on host:22 and opens a local listener on a random
// port. Connections to the local port are forwarded to remoteAddr as seen
// from the SSH host; an empty remoteAddr means the default Redis port on
// the host itself.
func NewSSHTunnel(host, user, pass, remoteAddr string) (*SSHTunnel, error) {
	if remoteAddr == "" {
		remoteAddr = "127.0.0.1:6379"
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
		},
		// Operator tooling on a trusted management network — production
		// deployments should verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	sshClient, err := ssh.Dial("tcp", host+":22", config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", host, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &SSHTunnel{
		localAddr:  listener.Addr().String(),
		remoteAddr: remoteAddr,
		sshClient:  sshClient,
		listener:   listener,
		done:       make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address (e.g. "127.0.0.1:54321") that
// forwards to the remote Redis.
func (t *SSHTunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener, closes the SSH connection, and waits for all
// forwarding goroutines to finish.
func (t *SSHTunnel) Close() error {
	close(t.done)
	t.listener.Close()
	t.wg.Wait()
	return t.sshClient.Close()
}

func (t *SSHTunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *SSHTunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", t.remoteAddr)
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
