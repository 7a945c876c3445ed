package sdk

import (
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) StartMetrics(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/metrics/start", id), nil, nil)
}

func (c *Client) StopMetrics(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/metrics/stop", id), nil, nil)
}

func (c *Client) GetMetrics(id string, minutes int) ([]MetricSnapshot, error) {
	var history []MetricSnapshot
	err := c.get(fmt.Sprintf("/instances/%s/metrics?minutes=%d", id, minutes), &history)
	return history, err
}

func (c *Client) RunBenchmark(id string, maxBots, stepSize, stepDurationSec int) error {
	payload := map[string]int{
		"max_bots":          maxBots,
		"step_size":         stepSize,
		"step_duration_sec": stepDurationSec,
	}
	return c.post(fmt.Sprintf("/instances/%s/benchmark", id), payload, nil)
}

func (c *Client) StopBenchmark(id string) error {
	return c.delete(fmt.Sprintf("/instances/%s/benchmark", id))
}

func (c *Client) GetBenchmarkResults(id string) ([]BenchmarkResult, error) {
	var results []BenchmarkResult
	err := c.get(fmt.Sprintf("/instances/%s/benchmarks", id), &results)
	return results, err
}

func (c *Client) ListBackups(id string) ([]Backup, error) {
	var backups []Backup
	err := c.get(fmt.Sprintf("/instances/%s/backups", id), &backups)
	return backups, err
}

func (c *Client) CreateBackup(id, backupType string) (*Backup, error) {
	payload := map[string]string{"type": backupType}
	var backup Backup
	err := c.post(fmt.Sprintf("/instances/%s/backups", id), payload, &backup)
	return &backup, err
}

func (c *Client) RestoreBackup(backupID string) error {
	return c.post(fmt.Sprintf("/backups/%s/restore", backupID), nil, nil)
}

func (c *Client) DeleteBackup(backupID string) error {
	return c.delete("/backups/" + backupID)
}

func (c *Client) ListTasks(id string) ([]ScheduledTask, error) {
	var tasks []ScheduledTask
	err := c.get(fmt.Sprintf("/instances/%s/tasks", id), &tasks)
	return tasks, err
}

func (c *Client) CreateTask(id, name, cronExpr, action, payload string) (*ScheduledTask, error) {
	body := map[string]string{
		"name":      name,
		"cron_expr": cronExpr,
		"action":    action,
		"payload":   payload,
	}
	var task ScheduledTask
	err := c.post(fmt.Sprintf("/instances/%s/tasks", id), body, &task)
	return &task, err
}

func (c *Client) SetTaskEnabled(taskID string, enabled bool) error {
	payload := map[string]bool{"enabled": enabled}
	return c.put(fmt.Sprintf("/tasks/%s/enabled", taskID), payload, nil)
}

func (c *Client) DeleteTask(taskID string) error {
	return c.delete("/tasks/" + taskID)
}

func (c *Client) ListPlugins(id string) ([]PluginInfo, error) {
	var plugins []PluginInfo
	err := c.get(fmt.Sprintf("/instances/%s/plugins", id), &plugins)
	return plugins, err
}

func (c *Client) InstallPlugin(id, name string) error {
	payload := map[string]string{"name": name}
	return c.post(fmt.Sprintf("/instances/%s/plugins", id), payload, nil)
}

func (c *Client) GetSideFile(id, name string) (json.RawMessage, error) {
	var data json.RawMessage
	err := c.get(fmt.Sprintf("/instances/%s/sidefiles/%s", id, url.PathEscape(name)), &data)
	return data, err
}

func (c *Client) PutSideFile(id, name string, data json.RawMessage) error {
	return c.put(fmt.Sprintf("/instances/%s/sidefiles/%s", id, url.PathEscape(name)), data, nil)
}

func (c *Client) ListMatches(id string) ([]string, error) {
	var matches []string
	err := c.get(fmt.Sprintf("/instances/%s/matches", id), &matches)
	return matches, err
}

func (c *Client) GetMatch(id, name string) (json.RawMessage, error) {
	var data json.RawMessage
	err := c.get(fmt.Sprintf("/instances/%s/matches/%s", id, url.PathEscape(name)), &data)
	return data, err
}

func (c *Client) ListFiles(id, path string) ([]FileEntry, error) {
	var entries []FileEntry
	err := c.get(fmt.Sprintf("/instances/%s/files?path=%s", id, url.QueryEscape(path)), &entries)
	return entries, err
}

func (c *Client) ReadFile(id, path string) (string, error) {
	var result struct {
		Content string `json:"content"`
	}
	err := c.get(fmt.Sprintf("/instances/%s/files/content?path=%s", id, url.QueryEscape(path)), &result)
	return result.Content, err
}

func (c *Client) WriteFile(id, path, content string) error {
	payload := map[string]string{
		"path":    path,
		"content": content,
	}
	return c.put(fmt.Sprintf("/instances/%s/files/content", id), payload, nil)
}

func (c *Client) DeleteFile(id, path string) error {
	return c.delete(fmt.Sprintf("/instances/%s/files?path=%s", id, url.QueryEscape(path)))
}

func (c *Client) GetAppConfig() (map[string]interface{}, error) {
	var cfg map[string]interface{}
	err := c.get("/config", &cfg)
	return cfg, err
}

func (c *Client) UpdateAppConfig(cfg map[string]interface{}) error {
	return c.put("/config", cfg, nil)
}

func (c *Client) GetAppLog() ([]string, error) {
	var lines []string
	err := c.get("/log", &lines)
	return lines, err
}

func (c *Client) GetAuditLog(limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := c.get(fmt.Sprintf("/audit?limit=%d", limit), &entries)
	return entries, err
}
