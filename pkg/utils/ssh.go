package utils

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/melbahja/goph"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs commands on a remote host over ssh.
type SSHExecutor struct {
	Host   string
	client *goph.Client
}

// SSHTarget is the resolved connection information for a host alias.
type SSHTarget struct {
	Alias        string
	HostName     string
	User         string
	Port         uint
	IdentityFile string
	StrictHost   bool
}

// ResolveSSHTarget looks the alias up in the ssh config file at configPath.
// A leading "~/" in configPath is the home directory. Unset fields, or a
// missing config file, fall back to the alias itself, the current user, port
// 22 and ~/.ssh/id_rsa.
func ResolveSSHTarget(configPath, alias string) (*SSHTarget, error) {
	target := &SSHTarget{Alias: alias, HostName: alias, Port: 22, StrictHost: true}
	if u, err := user.Current(); err == nil {
		target.User = u.Username
		target.IdentityFile = filepath.Join(u.HomeDir, ".ssh", "id_rsa")
	}
	if configPath == "" {
		return target, nil
	}

	configPath = expandHome(configPath)
	f, err := os.Open(configPath)
	if os.IsNotExist(err) {
		logrus.Debugf("ssh config %s not found, using defaults for %s", configPath, alias)
		return target, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open ssh config %s", configPath)
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode ssh config %s", configPath)
	}

	if v, _ := cfg.Get(alias, "HostName"); v != "" {
		target.HostName = v
	}
	if v, _ := cfg.Get(alias, "User"); v != "" {
		target.User = v
	}
	if v, _ := cfg.Get(alias, "IdentityFile"); v != "" {
		target.IdentityFile = expandHome(v)
	}
	if v, _ := cfg.Get(alias, "Port"); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid port %q for host %s", v, alias)
		}
		target.Port = uint(port)
	}
	if v, _ := cfg.Get(alias, "StrictHostKeyChecking"); strings.EqualFold(v, "no") {
		target.StrictHost = false
	}
	return target, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// NewSSHExecutor connects to the host described by target.
func NewSSHExecutor(target *SSHTarget) (*SSHExecutor, error) {
	auth, err := goph.Key(target.IdentityFile, "")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load identity %s", target.IdentityFile)
	}

	callback := ssh.InsecureIgnoreHostKey()
	if target.StrictHost {
		if callback, err = goph.DefaultKnownHosts(); err != nil {
			return nil, errors.Wrap(err, "failed to load known hosts")
		}
	}

	client, err := goph.NewConn(&goph.Config{
		User:     target.User,
		Addr:     target.HostName,
		Port:     target.Port,
		Auth:     auth,
		Callback: callback,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", target.Alias)
	}
	logrus.WithFields(logrus.Fields{
		"host": target.Alias,
		"addr": target.HostName,
	}).Debug("ssh connection established")
	return &SSHExecutor{Host: target.Alias, client: client}, nil
}

func (e *SSHExecutor) Execute(cmd string, args []string) (string, error) {
	line := shellQuote(append([]string{cmd}, args...))
	output, err := e.client.Run(line)
	if err != nil {
		return string(output), fmt.Errorf("command %q on %s failed: %w", line, e.Host, err)
	}
	return string(output), nil
}

func (e *SSHExecutor) Close() error {
	return e.client.Close()
}

func shellQuote(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" && strings.IndexFunc(w, func(r rune) bool {
			return !(r == '/' || r == '-' || r == '_' || r == '.' || r == '=' || r == ',' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
		}) < 0 {
			quoted = append(quoted, w)
			continue
		}
		quoted = append(quoted, "'"+strings.ReplaceAll(w, "'", `'\''`)+"'")
	}
	return strings.Join(quoted, " ")
}
