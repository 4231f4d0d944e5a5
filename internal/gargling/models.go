package gargling

// Gargling is one member of the chat group. The directory only carries what
// the journey engine needs: a display name, a chart color and whether the
// member has a step provider hooked up.
type Gargling struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	ColorHex     string `json:"color_hex"`
	StepsEnabled bool   `json:"steps_enabled"`
}
