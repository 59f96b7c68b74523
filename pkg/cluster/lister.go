package cluster

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Visibility records that a did device is visible from a host.
type Visibility struct {
	DID  string
	Host string
}

// Lister reports which did devices the given hosts see. An empty host list
// asks about this host only.
type Lister interface {
	List(hosts []string) ([]Visibility, error)
}

// ParseDIDList parses "did host" lines as printed by the cluster device
// listing. Did names given as paths are reduced to their last element.
func ParseDIDList(lines []string) []Visibility {
	var res []Visibility
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		res = append(res, Visibility{DID: path.Base(fields[0]), Host: fields[1]})
	}
	return res
}

// VisibleDIDs returns the did devices visible from every host. pairs must be
// grouped by did, as the listing prints them. Without hosts every distinct
// did is returned.
func VisibleDIDs(pairs []Visibility, hosts []string) []string {
	var res []string
	if len(hosts) == 0 {
		seen := sets.New[string]()
		for _, p := range pairs {
			if !seen.Has(p.DID) {
				seen.Insert(p.DID)
				res = append(res, p.DID)
			}
		}
		return res
	}

	wanted := sets.New(hosts...)
	var prev string
	count := 0
	for _, p := range pairs {
		if p.DID != prev {
			prev = p.DID
			count = 0
		}
		if wanted.Has(p.Host) {
			count++
		}
		if count == wanted.Len() {
			res = append(res, p.DID)
			// keep a did seen by a host twice from being added again
			count = 0
		}
	}
	return res
}

// CommandLister runs the cluster device listing, in its local form when no
// hosts are given and in its all-hosts form otherwise.
type CommandLister struct {
	Config   *option.Config
	Executor utils.Executor
}

func (l *CommandLister) List(hosts []string) ([]Visibility, error) {
	line := l.Config.Commands.DIDList
	if len(hosts) > 0 {
		line = l.Config.Commands.DIDListHosts
	}
	lines, err := utils.RunCommandLine(l.Executor, line)
	if err != nil {
		return nil, err
	}
	return ParseDIDList(lines), nil
}

// RemoteExecutor is an Executor bound to one remote host.
type RemoteExecutor interface {
	utils.Executor
	Close() error
}

// SSHLister runs the local device listing on every host over ssh and merges
// the answers. Hosts that cannot be reached contribute nothing, which keeps
// their devices out of the intersection.
type SSHLister struct {
	Config *option.Config
	// Connect opens a session to a host alias.
	Connect func(host string) (RemoteExecutor, error)
}

// NewSSHLister resolves host aliases through the ssh config at sshConfig.
func NewSSHLister(cfg *option.Config, sshConfig string) *SSHLister {
	return &SSHLister{
		Config: cfg,
		Connect: func(host string) (RemoteExecutor, error) {
			target, err := utils.ResolveSSHTarget(sshConfig, host)
			if err != nil {
				return nil, err
			}
			return utils.NewSSHExecutor(target)
		},
	}
}

func (l *SSHLister) List(hosts []string) ([]Visibility, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		res  []Visibility
		errs []error
	)
	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			dids, err := l.listHost(host)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for _, did := range dids {
				res = append(res, Visibility{DID: did, Host: host})
			}
		}(host)
	}
	wg.Wait()

	sort.Slice(res, func(i, j int) bool {
		if res[i].DID != res[j].DID {
			return res[i].DID < res[j].DID
		}
		return res[i].Host < res[j].Host
	})
	return res, utilerrors.NewAggregate(errs)
}

func (l *SSHLister) listHost(host string) ([]string, error) {
	executor, err := l.Connect(host)
	if err != nil {
		return nil, err
	}
	defer executor.Close()

	lines, err := utils.RunCommandLine(executor, l.Config.Commands.DIDList)
	if err != nil {
		return nil, err
	}
	var dids []string
	for _, v := range ParseDIDList(lines) {
		dids = append(dids, v.DID)
	}
	logrus.WithField("host", host).Debugf("%d did devices visible", len(dids))
	return dids, nil
}
