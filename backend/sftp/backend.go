package sftp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path"
	"strconv"
	"sync"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const Kind = "sftp"

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		config := SFTPConfig{
			Port:     22,
			BasePath: "/",
		}
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}
		if config.Host == "" || config.Username == "" {
			return nil, fmt.Errorf("%w: 'host' and 'username' are required", data.ErrInvalid)
		}

		return NewSFTPBackend(config), nil
	})
}

// SFTPConfig holds SFTP connection configuration
type SFTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// PEM encoded private key file
	PrivateKeyFile string `mapstructure:"private_key_file"`
	// known_hosts file used to verify the server key
	KnownHostsFile string `mapstructure:"known_hosts_file"`
	// Skip host key verification entirely
	InsecureIgnoreHostKey bool `mapstructure:"insecure_ignore_host_key"`
	// Remote directory used as root
	BasePath string `mapstructure:"base_path"`
}

// SFTPBackend stores files on a remote host reachable through SFTP.
type SFTPBackend struct {
	mu       sync.Mutex
	config   SFTPConfig
	client   *sftp.Client
	sshConn  *ssh.Client
	basePath string
}

// NewSFTPBackend creates a driver that dials the configured host on Open.
func NewSFTPBackend(config SFTPConfig) *SFTPBackend {
	return &SFTPBackend{
		config:   config,
		basePath: path.Join("/", config.BasePath),
	}
}

// NewWithClient creates a driver on top of an already connected client.
func NewWithClient(client *sftp.Client, basePath string) *SFTPBackend {
	return &SFTPBackend{
		client:   client,
		basePath: path.Join("/", basePath),
	}
}

// Returns the identifier name defined for this backend
func (*SFTPBackend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *SFTPBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.client == nil {
		if err := sb.connect(ctx); err != nil {
			return err
		}
	}

	info, err := sb.client.Stat(sb.basePath)
	if err != nil {
		return fmt.Errorf("base path unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base path is not a directory: %w", data.ErrNotDirectory)
	}

	return nil
}

// connect establishes SSH and SFTP connections
func (sb *SFTPBackend) connect(ctx context.Context) error {
	sshConfig := &ssh.ClientConfig{
		User: sb.config.Username,
	}

	switch {
	case sb.config.InsecureIgnoreHostKey:
		sshConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	case sb.config.KnownHostsFile != "":
		callback, err := knownhosts.New(sb.config.KnownHostsFile)
		if err != nil {
			return fmt.Errorf("failed to load known hosts: %w", err)
		}
		sshConfig.HostKeyCallback = callback
	default:
		return fmt.Errorf("no host key verification configured")
	}

	if sb.config.PrivateKeyFile != "" {
		pem, err := os.ReadFile(sb.config.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return fmt.Errorf("failed to parse private key: %w", err)
		}
		sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signer))
	}

	if sb.config.Password != "" {
		sshConfig.Auth = append(sshConfig.Auth, ssh.Password(sb.config.Password))
	}

	if len(sshConfig.Auth) == 0 {
		return fmt.Errorf("no authentication method provided")
	}

	addr := net.JoinHostPort(sb.config.Host, strconv.Itoa(sb.config.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SSH: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to establish SSH session: %w", err)
	}
	sshConn := ssh.NewClient(clientConn, chans, reqs)

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}

	sb.sshConn = sshConn
	sb.client = client

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *SFTPBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	errs := &data.Errors{}

	if sb.client != nil {
		errs.Add(sb.client.Close())
		sb.client = nil
	}

	if sb.sshConn != nil {
		errs.Add(sb.sshConn.Close())
		sb.sshConn = nil
	}

	return errs.Errors()
}

// Capabilities returns a list of capabilities supported by this backend.
func (sb *SFTPBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityHierarchy,
			backend.CapabilityConditionalWrite,
			backend.CapabilityModifyTime,
			backend.CapabilityStreaming,
		},
		// Default SFTP packet payload
		MinChunkSize: 32 * 1024,
	}
}

func (sb *SFTPBackend) resolvePath(key string) string {
	return path.Join(sb.basePath, key)
}

func (sb *SFTPBackend) relativeKey(fullPath string) string {
	return data.ToRelativePath(path.Clean(fullPath), sb.basePath)
}

func mapError(op, key string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &data.PathError{Op: op, Path: key, Kind: data.ErrNotExist, Err: err}
	case errors.Is(err, fs.ErrExist):
		return &data.PathError{Op: op, Path: key, Kind: data.ErrConflict, Err: err}
	default:
		return data.IOFailure(op, key, err)
	}
}

func toEntry(key string, info os.FileInfo) *data.Entry {
	entry := &data.Entry{
		Key:        key,
		Kind:       data.KindFile,
		Size:       info.Size(),
		ModifyTime: info.ModTime(),
	}

	if info.IsDir() {
		entry.Kind = data.KindDirectory
		entry.Size = 0
	} else {
		entry.ContentType = data.ContentTypeOf(key)
	}

	return entry
}
