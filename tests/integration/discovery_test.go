package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kevinburke/ssh_config"
	"github.com/melbahja/goph"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/samqfs/au-discovery/pkg/au"
)

// The suite drives the au-discovery binary installed on the node named in
// $AUD_HOME/ssh-config.
const binary = "/usr/local/bin/au-discovery"

var skipNext bool

type DiscoverySuite struct {
	suite.Suite
	SSHClient      *goph.Client
	targetNodeName string
}

func (s *DiscoverySuite) SetupSuite() {
	home := os.Getenv("AUD_HOME")
	if home == "" {
		s.T().Skip("AUD_HOME is not set, skipping integration tests")
	}
	nodeName := ""
	f, err := os.Open(filepath.Join(home, "ssh-config"))
	require.Equal(s.T(), nil, err, "Open ssh-config should not get error")
	defer f.Close()
	cfg, err := ssh_config.Decode(f)
	require.Equal(s.T(), nil, err, "Decode ssh-config should not get error")
	for _, host := range cfg.Hosts {
		if host.String() == "" {
			// wildcard, continue
			continue
		}
		nodeName = host.Patterns[0].String()
		break
	}
	require.NotEqual(s.T(), "", nodeName, "nodeName should not be empty.")
	s.targetNodeName = nodeName
	targetHost, _ := cfg.Get(nodeName, "HostName")
	targetUser, _ := cfg.Get(nodeName, "User")
	targetPrivateKey, _ := cfg.Get(nodeName, "IdentityFile")
	privateKey := filepath.Join(home, filepath.Base(targetPrivateKey))
	auth, err := goph.Key(privateKey, "")
	require.Equal(s.T(), nil, err, "generate ssh auth key should not get error")

	s.SSHClient, err = goph.NewUnknown(targetUser, targetHost, auth)
	require.Equal(s.T(), nil, err, "New ssh connection should not get error")
}

func (s *DiscoverySuite) TearDownSuite() {
	if s.SSHClient != nil {
		s.SSHClient.Close()
	}
}

func (s *DiscoverySuite) SetupTest() {
	if skipNext {
		s.T().Skip("Skipping test because a previous test failed")
	}
}

func (s *DiscoverySuite) TearDownTest() {
	if s.T().Failed() {
		skipNext = true
	}
}

func TestDiscovery(t *testing.T) {
	suite.Run(t, new(DiscoverySuite))
}

func (s *DiscoverySuite) run(args ...string) []byte {
	cmd := binary + " " + strings.Join(args, " ")
	out, err := s.SSHClient.Run(cmd)
	require.Equal(s.T(), nil, err, "%s should not get error: %s", cmd, string(out))
	return out
}

func (s *DiscoverySuite) units(args ...string) []*au.Unit {
	out := s.run(append([]string{"-o", "json"}, args...)...)
	var units []*au.Unit
	require.Equal(s.T(), nil, json.Unmarshal(out, &units), "units should decode")
	return units
}

func (s *DiscoverySuite) Test_0_DiscoverAll() {
	units := s.units("discover")
	require.NotEqual(s.T(), 0, len(units), "a node has at least its boot slices")
	for _, u := range units {
		require.NotEqual(s.T(), uint64(0), u.Capacity, "unit %s should have a capacity", u.Path)
	}
}

func (s *DiscoverySuite) Test_1_AvailableIsSubset() {
	all := map[string]bool{}
	for _, u := range s.units("discover") {
		all[u.Path] = true
	}
	for _, u := range s.units("discover", "--available") {
		require.True(s.T(), all[u.Path], "available unit %s should be discovered", u.Path)
		require.False(s.T(), u.HeldOpen(), "available unit %s should not be in use", u.Path)
	}
}

func (s *DiscoverySuite) Test_2_DiscoverSlices() {
	for _, u := range s.units("discover", "--type", "slice") {
		require.Equal(s.T(), au.RawSlice, u.Kind, "unit %s should be a slice", u.Path)
	}
}

func (s *DiscoverySuite) Test_3_HAOnSingleHost() {
	for _, u := range s.units("ha", "--host", s.targetNodeName) {
		require.True(s.T(), strings.Contains(u.Path, "/did/") || strings.Contains(u.Path, "/md/"),
			"HA unit %s should be a did slice or a diskset volume", u.Path)
	}
}
