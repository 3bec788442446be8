package shell

import "sort"

// Aliases maps safe short names to full command lines. These run
// without authorization, so only read-only diagnostics belong here.
var Aliases = map[string]string{
	"uptime": "uptime",
	"df":     "df -h",
	"free":   "free -h",
	"top1":   "ps -eo pid,comm,%cpu,%mem --sort=-%cpu | head -n 12",
	"temp":   "sensors",
	"ip":     "ip -br a",
	"disk":   "lsblk -o NAME,SIZE,TYPE,MOUNTPOINT",
}

// AliasNames returns the valid alias names, sorted.
func AliasNames() []string {
	names := make([]string, 0, len(Aliases))
	for name := range Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
