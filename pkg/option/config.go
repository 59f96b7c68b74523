package option

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Roots are the device namespace directories discovery walks.
type Roots struct {
	// Devices is the device namespace every other root lives in.
	Devices      string `yaml:"devices"`
	RawSlice     string `yaml:"rawSlice"`
	BlockSlice   string `yaml:"blockSlice"`
	Mirror       string `yaml:"mirror"`
	VolumeMgr    string `yaml:"volumeManager"`
	RootDiskGrp  string `yaml:"rootDiskGroup"`
	ZfsVolume    string `yaml:"zfsVolume"`
	ObjectDevice string `yaml:"objectDevice"`
	DIDRaw       string `yaml:"didRaw"`
	DIDBlock     string `yaml:"didBlock"`
	Diskset      string `yaml:"diskset"`
}

// Files are the configuration files read for in-use references.
type Files struct {
	Vfstab string `yaml:"vfstab"`
	MCF    string `yaml:"mcf"`
}

// Commands are the external command lines discovery scrapes.
type Commands struct {
	MetadbCheck     string `yaml:"metadbCheck"`
	Metadb          string `yaml:"metadb"`
	Metastat        string `yaml:"metastat"`
	MetastatDiskset string `yaml:"metastatDiskset"`
	VxDisk          string `yaml:"vxdisk"`
	VxPrint         string `yaml:"vxprint"`
	ZfsList         string `yaml:"zfsList"`
	DIDList         string `yaml:"didList"`
	DIDListHosts    string `yaml:"didListHosts"`
}

// Config is the discovery configuration, loaded from YAML.
type Config struct {
	Roots    Roots    `yaml:"roots"`
	Files    Files    `yaml:"files"`
	Commands Commands `yaml:"commands"`

	// MaxDIDSlice is the highest partition index probed on a did device.
	MaxDIDSlice int `yaml:"maxDIDSlice"`
	// ObjectDevices enables the object device walker.
	ObjectDevices bool `yaml:"objectDevices"`
	// CommandTimeout bounds each external command, e.g. "30s".
	CommandTimeout string `yaml:"commandTimeout"`
	// ExcludedVendors never get a page 0x83 inquiry.
	ExcludedVendors []string `yaml:"excludedVendors"`
}

func DefaultConfig() *Config {
	return &Config{
		Roots: Roots{
			Devices:      "/dev",
			RawSlice:     "/dev/rdsk",
			BlockSlice:   "/dev/dsk",
			Mirror:       "/dev/md/rdsk",
			VolumeMgr:    "/dev/vx/rdsk",
			RootDiskGrp:  "rootdg",
			ZfsVolume:    "/dev/zvol/rdsk",
			ObjectDevice: "/dev/osd",
			DIDRaw:       "/dev/did/rdsk",
			DIDBlock:     "/dev/did/dsk",
			Diskset:      "/dev/md",
		},
		Files: Files{
			Vfstab: "/etc/vfstab",
			MCF:    "/etc/opt/SUNWsamfs/mcf",
		},
		Commands: Commands{
			MetadbCheck:     "/usr/sbin/metadb",
			Metadb:          "/usr/sbin/metadb",
			Metastat:        "/usr/sbin/metastat -p",
			MetastatDiskset: "/usr/sbin/metastat -p -s",
			VxDisk:          "/usr/sbin/vxdisk -e list",
			VxPrint:         "/usr/sbin/vxprint -hq",
			ZfsList:         "/usr/sbin/zfs list -H -t volume",
			DIDList:         "/usr/cluster/bin/scdidadm -l -o name -o host",
			DIDListHosts:    "/usr/cluster/bin/scdidadm -L -o name -o host",
		},
		MaxDIDSlice:     7,
		ExcludedVendors: []string{"EMC"},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.MaxDIDSlice < 0 {
		return nil, errors.Errorf("maxDIDSlice must not be negative, got %d", cfg.MaxDIDSlice)
	}
	return cfg, nil
}
