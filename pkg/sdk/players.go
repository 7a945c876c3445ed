package sdk

import "fmt"

func (c *Client) GetPlayers(id string) ([]Player, error) {
	var players []Player
	err := c.get(fmt.Sprintf("/instances/%s/players", id), &players)
	return players, err
}

func (c *Client) KickPlayer(id string, userID int, reason string) error {
	payload := map[string]interface{}{
		"user_id": userID,
		"reason":  reason,
	}
	return c.post(fmt.Sprintf("/instances/%s/players/kick", id), payload, nil)
}

func (c *Client) BanPlayer(id, steamID string, durationMinutes int, reason string) error {
	payload := map[string]interface{}{
		"steam_id":         steamID,
		"duration_minutes": durationMinutes,
		"reason":           reason,
	}
	return c.post(fmt.Sprintf("/instances/%s/players/ban", id), payload, nil)
}

func (c *Client) MutePlayer(id, steamID string) error {
	payload := map[string]string{"steam_id": steamID}
	return c.post(fmt.Sprintf("/instances/%s/players/mute", id), payload, nil)
}

func (c *Client) GetBans(id string) ([]BanEntry, error) {
	var bans []BanEntry
	err := c.get(fmt.Sprintf("/instances/%s/bans", id), &bans)
	return bans, err
}

func (c *Client) Unban(banID string) error {
	return c.delete("/bans/" + banID)
}

func (c *Client) GetBotConfig(id string) (*BotConfig, error) {
	var cfg BotConfig
	err := c.get(fmt.Sprintf("/instances/%s/bots", id), &cfg)
	return &cfg, err
}

func (c *Client) UpdateBotConfig(id string, cfg BotConfig) error {
	return c.put(fmt.Sprintf("/instances/%s/bots", id), cfg, nil)
}
