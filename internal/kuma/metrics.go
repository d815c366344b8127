package kuma

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Monitor is one Uptime Kuma monitor extracted from the metrics endpoint.
// Code is the raw monitor_status sample: 0 down, 1 up, 2 pending,
// 3 maintenance.
type Monitor struct {
	ID   string
	Name string
	URL  string
	Code int
}

// Label maps the status code to the label Kuma's own UI uses.
func (m Monitor) Label() string {
	switch m.Code {
	case 0:
		return "DOWN"
	case 1:
		return "UP"
	case 2:
		return "PENDING"
	case 3:
		return "MAINTENANCE"
	}
	return "UNKNOWN"
}

// Color is the display color for the status code.
func (m Monitor) Color() string {
	switch m.Code {
	case 0:
		return "red"
	case 1:
		return "green"
	case 2:
		return "orange"
	case 3:
		return "blue"
	}
	return "grey"
}

var (
	sampleRe = regexp.MustCompile(`^([a-zA-Z_:][a-zA-Z0-9_:]*)\{([^}]*)\}\s+([-+0-9.eE]+)`)
	labelRe  = regexp.MustCompile(`(\w+)="([^"\\]*)"`)
)

// ParseMetrics extracts monitor_status samples from Prometheus exposition
// text. Parsing is tolerant: lines that do not match are skipped, so a
// partially garbled scrape still yields the monitors it can.
//
// The result is keyed twice per monitor, "url:<scheme://host>" and
// "name:<lowercase name>", to support the match heuristics.
func ParseMetrics(text string) map[string]Monitor {
	monitors := make(map[string]Monitor)
	for line := range strings.Lines(text) {
		m := sampleRe.FindStringSubmatch(line)
		if m == nil || m[1] != "monitor_status" {
			continue
		}
		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		labels := parseLabels(m[2])
		mon := Monitor{
			ID:   labels["monitor_id"],
			Name: labels["monitor_name"],
			URL:  labels["monitor_url"],
			Code: int(value),
		}
		if norm := NormalizeURL(mon.URL); norm != "" {
			monitors["url:"+norm] = mon
		}
		if mon.Name != "" {
			monitors["name:"+strings.ToLower(mon.Name)] = mon
		}
	}
	return monitors
}

func parseLabels(s string) map[string]string {
	labels := make(map[string]string)
	for _, kv := range labelRe.FindAllStringSubmatch(s, -1) {
		labels[kv[1]] = kv[2]
	}
	return labels
}

// NormalizeURL reduces a monitor or service URL to scheme://host for
// matching, so path and trailing-slash differences do not break correlation.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return u.Scheme + "://" + u.Host
}

// Match finds the monitor for a service, by normalized URL first and then by
// lower-cased name. Cross-system correlation is approximate: a non-match is
// as normal an outcome as a match.
func Match(monitors map[string]Monitor, name, serviceURL string) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	if serviceURL != "" {
		if m, ok := monitors["url:"+NormalizeURL(serviceURL)]; ok {
			return m, true
		}
	}
	if name != "" {
		if m, ok := monitors["name:"+strings.ToLower(name)]; ok {
			return m, true
		}
	}
	return Monitor{}, false
}
