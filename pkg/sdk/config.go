package sdk

import (
	"fmt"
	"net/url"
)

func (c *Client) GetServerConfig(id string) (map[string]string, error) {
	var cvars map[string]string
	err := c.get(fmt.Sprintf("/instances/%s/config", id), &cvars)
	return cvars, err
}

func (c *Client) UpdateServerConfig(id string, cvars map[string]string) (*ConfigUpdateResult, error) {
	var result ConfigUpdateResult
	err := c.put(fmt.Sprintf("/instances/%s/config", id), cvars, &result)
	return &result, err
}

func (c *Client) GetCvars() ([]CvarDef, error) {
	var cvars []CvarDef
	err := c.get("/cvars", &cvars)
	return cvars, err
}

func (c *Client) SearchCvars(query string) ([]CvarDef, error) {
	var cvars []CvarDef
	err := c.get("/cvars?q="+url.QueryEscape(query), &cvars)
	return cvars, err
}

func (c *Client) GetPresets() ([]GameModePreset, error) {
	var presets []GameModePreset
	err := c.get("/presets", &presets)
	return presets, err
}

func (c *Client) ApplyPreset(id, presetName string) (*ConfigUpdateResult, error) {
	var result ConfigUpdateResult
	err := c.post(fmt.Sprintf("/instances/%s/presets/%s", id, url.PathEscape(presetName)), nil, &result)
	return &result, err
}

func (c *Client) GetLANCvars() (map[string]string, error) {
	var cvars map[string]string
	err := c.get("/lan-cvars", &cvars)
	return cvars, err
}

func (c *Client) ListProfiles(id string) ([]ConfigProfile, error) {
	var profiles []ConfigProfile
	err := c.get(fmt.Sprintf("/instances/%s/profiles", id), &profiles)
	return profiles, err
}

func (c *Client) SaveProfile(id, name string, cvars map[string]string) (*ConfigProfile, error) {
	payload := map[string]interface{}{
		"name":  name,
		"cvars": cvars,
	}
	var profile ConfigProfile
	err := c.post(fmt.Sprintf("/instances/%s/profiles", id), payload, &profile)
	return &profile, err
}

func (c *Client) LoadProfile(profileID string) (map[string]string, error) {
	var cvars map[string]string
	err := c.get("/profiles/"+profileID, &cvars)
	return cvars, err
}

func (c *Client) ApplyProfile(profileID string) (*ConfigUpdateResult, error) {
	var result ConfigUpdateResult
	err := c.post(fmt.Sprintf("/profiles/%s/apply", profileID), nil, &result)
	return &result, err
}

func (c *Client) DeleteProfile(profileID string) error {
	return c.delete("/profiles/" + profileID)
}

func (c *Client) GetMaps(id string) ([]MapInfo, error) {
	var maps []MapInfo
	err := c.get(fmt.Sprintf("/instances/%s/maps", id), &maps)
	return maps, err
}

func (c *Client) GetMapcycle(id string) ([]string, error) {
	var rotation []string
	err := c.get(fmt.Sprintf("/instances/%s/mapcycle", id), &rotation)
	return rotation, err
}

func (c *Client) SetMapcycle(id string, maps []string) error {
	return c.put(fmt.Sprintf("/instances/%s/mapcycle", id), maps, nil)
}

func (c *Client) ChangeMap(id, mapName string) error {
	payload := map[string]string{"map": mapName}
	return c.post(fmt.Sprintf("/instances/%s/map", id), payload, nil)
}

func (c *Client) ListWorkshopItems(id string) ([]WorkshopItem, error) {
	var items []WorkshopItem
	err := c.get(fmt.Sprintf("/instances/%s/workshop", id), &items)
	return items, err
}

func (c *Client) DownloadWorkshopMap(id string, workshopID int64) error {
	payload := map[string]int64{"workshop_id": workshopID}
	return c.post(fmt.Sprintf("/instances/%s/workshop", id), payload, nil)
}
