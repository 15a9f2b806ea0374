package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// RESTClient talks to the game server's JSON API with bearer-token
// auth. Every request carries an overall deadline; classification of
// failures into the clienterr taxonomy happens here so callers only see
// typed errors.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithTimeout overrides the default 30s request deadline.
func WithTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) { c.http.Timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) RESTOption {
	return func(c *RESTClient) { c.http = h }
}

// NewRESTClient builds a client for the given server URL and API token.
func NewRESTClient(baseURL, token string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the server's standard {"data": ...} wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return clienterr.Wrap(clienterr.KindValidation, op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return clienterr.Wrap(clienterr.KindValidation, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logging.Client("%s failed after %v: %v", op, time.Since(start), err)
		return clienterr.Wrap(clienterr.KindTransient, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return clienterr.Wrap(clienterr.KindTransient, op, err)
	}
	logging.ClientDebug("%s -> %d (%dB, %v)", op, resp.StatusCode, len(data), time.Since(start))

	if resp.StatusCode >= 400 {
		msg := serverMessage(data)
		return clienterr.FromStatus(resp.StatusCode, op, msg)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return clienterr.Wrap(clienterr.KindTransient, op, fmt.Errorf("malformed response: %w", err))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return clienterr.Wrap(clienterr.KindTransient, op, fmt.Errorf("malformed payload: %w", err))
	}
	return nil
}

func serverMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// --- reads ---

// GetCharacter fetches a character snapshot.
func (c *RESTClient) GetCharacter(ctx context.Context, name string) (*game.Character, error) {
	var wc wireCharacter
	if err := c.do(ctx, http.MethodGet, "/characters/"+name, nil, &wc); err != nil {
		return nil, err
	}
	ch := wc.toCharacter()
	return &ch, nil
}

// GetCharacters lists the account's characters.
func (c *RESTClient) GetCharacters(ctx context.Context) ([]game.Character, error) {
	var wcs []wireCharacter
	if err := c.do(ctx, http.MethodGet, "/my/characters", nil, &wcs); err != nil {
		return nil, err
	}
	out := make([]game.Character, len(wcs))
	for i, wc := range wcs {
		out[i] = wc.toCharacter()
	}
	return out, nil
}

// GetMap fetches one tile; off-map coordinates surface as NotFound.
func (c *RESTClient) GetMap(ctx context.Context, x, y int) (*game.MapTile, error) {
	var wt wireTile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/maps/%d/%d", x, y), nil, &wt); err != nil {
		return nil, err
	}
	tile := wt.toTile()
	return &tile, nil
}

// GetItem fetches an item record.
func (c *RESTClient) GetItem(ctx context.Context, code string) (*game.ItemRecord, error) {
	var wi wireItem
	if err := c.do(ctx, http.MethodGet, "/items/"+code, nil, &wi); err != nil {
		return nil, err
	}
	item := wi.toItem()
	return &item, nil
}

// GetMonster fetches a monster record.
func (c *RESTClient) GetMonster(ctx context.Context, code string) (*game.MonsterRecord, error) {
	var wm wireMonster
	if err := c.do(ctx, http.MethodGet, "/monsters/"+code, nil, &wm); err != nil {
		return nil, err
	}
	mon := wm.toMonster()
	return &mon, nil
}

// GetResource fetches a resource record.
func (c *RESTClient) GetResource(ctx context.Context, code string) (*game.ResourceRecord, error) {
	var wr wireResource
	if err := c.do(ctx, http.MethodGet, "/resources/"+code, nil, &wr); err != nil {
		return nil, err
	}
	res := wr.toResource()
	return &res, nil
}

// --- actions ---

// Move moves the character. 490 surfaces as KindAlreadyAtDestination.
func (c *RESTClient) Move(ctx context.Context, name string, x, y int) (*MoveResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Destination wireTile    `json:"destination"`
	}
	body := map[string]int{"x": x, "y": y}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/move", body, &payload); err != nil {
		return nil, err
	}
	return &MoveResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Tile:      payload.Destination.toTile(),
	}, nil
}

// Attack fights the monster on the current tile.
func (c *RESTClient) Attack(ctx context.Context, name string) (*FightResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Fight     wireFight     `json:"fight"`
	}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/fight", nil, &payload); err != nil {
		return nil, err
	}
	return &FightResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Fight:     payload.Fight.toReport(),
	}, nil
}

// Gather harvests the resource on the current tile.
func (c *RESTClient) Gather(ctx context.Context, name string) (*GatherResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Details   struct {
			XP    int                  `json:"xp"`
			Items []game.InventorySlot `json:"items"`
		} `json:"details"`
	}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/gathering", nil, &payload); err != nil {
		return nil, err
	}
	return &GatherResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Items:     payload.Details.Items,
		XP:        payload.Details.XP,
	}, nil
}

// Craft produces quantity of the item at the current workshop.
func (c *RESTClient) Craft(ctx context.Context, name, code string, quantity int) (*CraftResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Details   struct {
			XP    int                  `json:"xp"`
			Items []game.InventorySlot `json:"items"`
		} `json:"details"`
	}
	body := map[string]any{"code": code, "quantity": quantity}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/crafting", body, &payload); err != nil {
		return nil, err
	}
	return &CraftResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Produced:  payload.Details.Items,
		XP:        payload.Details.XP,
	}, nil
}

// Equip equips an inventory item into a slot.
func (c *RESTClient) Equip(ctx context.Context, name, code string, slot game.Slot) (*EquipResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Slot      string        `json:"slot"`
		Item      struct {
			Code string `json:"code"`
		} `json:"item"`
	}
	body := map[string]any{"code": code, "slot": string(slot)}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/equip", body, &payload); err != nil {
		return nil, err
	}
	return &EquipResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Slot:      game.Slot(payload.Slot),
		Item:      payload.Item.Code,
	}, nil
}

// Unequip removes the item in a slot back to inventory.
func (c *RESTClient) Unequip(ctx context.Context, name string, slot game.Slot, quantity int) (*EquipResponse, error) {
	var payload struct {
		Cooldown  Cooldown      `json:"cooldown"`
		Character wireCharacter `json:"character"`
		Slot      string        `json:"slot"`
		Item      struct {
			Code string `json:"code"`
		} `json:"item"`
	}
	body := map[string]any{"slot": string(slot)}
	if quantity > 1 {
		body["quantity"] = quantity
	}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/unequip", body, &payload); err != nil {
		return nil, err
	}
	return &EquipResponse{
		Character: payload.Character.toCharacter(),
		Cooldown:  payload.Cooldown,
		Slot:      game.Slot(payload.Slot),
		Item:      payload.Item.Code,
	}, nil
}

// Rest recovers HP on the current tile.
func (c *RESTClient) Rest(ctx context.Context, name string) (*RestResponse, error) {
	var payload struct {
		Cooldown   Cooldown      `json:"cooldown"`
		Character  wireCharacter `json:"character"`
		HPRestored int           `json:"hp_restored"`
	}
	if err := c.do(ctx, http.MethodPost, "/my/"+name+"/action/rest", nil, &payload); err != nil {
		return nil, err
	}
	return &RestResponse{
		Character:  payload.Character.toCharacter(),
		Cooldown:   payload.Cooldown,
		HPRestored: payload.HPRestored,
	}, nil
}

// --- lifecycle (CLI only) ---

// CreateCharacter creates a new character on the account.
func (c *RESTClient) CreateCharacter(ctx context.Context, name string) (*game.Character, error) {
	var wc wireCharacter
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/characters/create", body, &wc); err != nil {
		return nil, err
	}
	ch := wc.toCharacter()
	return &ch, nil
}

// DeleteCharacter removes a character from the account.
func (c *RESTClient) DeleteCharacter(ctx context.Context, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPost, "/characters/delete", body, nil)
}

var _ GameClient = (*RESTClient)(nil)
var _ LifecycleClient = (*RESTClient)(nil)
