package sdk

import "fmt"

func (c *Client) ListInstances() ([]Instance, error) {
	var instances []Instance
	err := c.get("/instances", &instances)
	return instances, err
}

func (c *Client) GetInstance(id string) (*Instance, error) {
	var inst Instance
	err := c.get("/instances/"+id, &inst)
	return &inst, err
}

func (c *Client) CreateInstance(cfg InstanceConfig) (*Instance, error) {
	var inst Instance
	err := c.post("/instances", cfg, &inst)
	return &inst, err
}

func (c *Client) UpdateInstance(id string, cfg InstanceConfig) error {
	return c.put("/instances/"+id, cfg, nil)
}

func (c *Client) DeleteInstance(id string) error {
	return c.delete("/instances/" + id)
}

func (c *Client) StartInstance(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/start", id), nil, nil)
}

func (c *Client) StopInstance(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/stop", id), nil, nil)
}

func (c *Client) RestartInstance(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/restart", id), nil, nil)
}

func (c *Client) InstallServer(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/install", id), nil, nil)
}

func (c *Client) UpdateServer(id string) error {
	return c.post(fmt.Sprintf("/instances/%s/update", id), nil, nil)
}

func (c *Client) GetConsole(id string, lines int) ([]string, error) {
	var out []string
	err := c.get(fmt.Sprintf("/instances/%s/console?lines=%d", id, lines), &out)
	return out, err
}

func (c *Client) SendRCON(id, command string) (string, error) {
	payload := map[string]string{"command": command}
	var result struct {
		Response string `json:"response"`
	}
	err := c.post(fmt.Sprintf("/instances/%s/rcon", id), payload, &result)
	return result.Response, err
}

// ConsoleSocketURL is the websocket endpoint of the interactive
// console for one instance.
func (c *Client) ConsoleSocketURL(id string) (string, error) {
	return c.GetWebSocketURL(fmt.Sprintf("/ws/instances/%s/console", id))
}

// EventSocketURL is the websocket endpoint streaming every event kind
// of one instance.
func (c *Client) EventSocketURL(id string) (string, error) {
	u, err := c.GetWebSocketURL("/ws/events")
	if err != nil {
		return "", err
	}
	return u + "?instance=" + id, nil
}
