package config

import (
	"bufio"
	"os"
	"sort"
	"strings"
)

// ReadCfgFile parses a Source-engine .cfg file into a cvar map. Lines
// are `key "value"` or `key value`; // comments and blanks are skipped.
func ReadCfgFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if key, value, ok := parseCfgLine(line); ok && key != "" {
			result[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseCfgLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}

	idx := strings.Index(line, " ")
	if idx < 0 {
		return line, "", true
	}

	key := strings.TrimSpace(line[:idx])
	valuePart := strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}

	var value string
	if strings.HasPrefix(valuePart, `"`) {
		valuePart = valuePart[1:]
		if end := strings.Index(valuePart, `"`); end >= 0 {
			value = valuePart[:end]
		} else {
			value = valuePart
		}
	} else {
		// unquoted values may contain spaces, take the rest of the line
		value = valuePart
	}
	return key, value, true
}

// WriteCfgFile writes cvars as `key "value"` lines, keys sorted, so
// repeated writes of the same map produce identical bytes.
func WriteCfgFile(path string, cvars map[string]string) error {
	keys := make([]string, 0, len(cvars))
	for k := range cvars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(" \"")
		sb.WriteString(strings.ReplaceAll(cvars[k], `"`, `\"`))
		sb.WriteString("\"\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// ReadMapcycle returns the map names in a mapcycle.txt, one per line.
func ReadMapcycle(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var maps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		maps = append(maps, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return maps, nil
}

// WriteMapcycle writes map names one per line.
func WriteMapcycle(path string, maps []string) error {
	var sb strings.Builder
	for _, m := range maps {
		if m != "" {
			sb.WriteString(m)
			sb.WriteString("\n")
		}
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
