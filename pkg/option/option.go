package option

type Option struct {
	ConfigFile string
	SSHConfig  string
	Hosts      []string

	Debug     bool
	Trace     bool
	LogFormat string
	Output    string

	VendorFilter string
	PathFilter   string
	LabelFilter  string
	KindFilter   string

	UdevRules string
}
