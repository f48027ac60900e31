package viewer

// SliceCounts holds a per-axis integer triple, used both for slice counts
// and for the initial crosshair position.
type SliceCounts struct {
	X int `json:"X"`
	Y int `json:"Y"`
	Z int `json:"Z"`
}

// Overlay describes the statistical map drawn on top of the background
// sprite.
type Overlay struct {
	Sprite  string      `json:"sprite"`
	NbSlice SliceCounts `json:"nbSlice"`
	Opacity float64     `json:"opacity"`
}

// ColorMapRef points the viewer at the colormap strip image and its value
// range, used to render the colorbar and annotate values.
type ColorMapRef struct {
	Img string  `json:"img"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Params is the JSON parameter object handed to the brainsprite JavaScript
// viewer at initialization.
type Params struct {
	Canvas          string         `json:"canvas"`
	Sprite          string         `json:"sprite"`
	NbSlice         SliceCounts    `json:"nbSlice"`
	Overlay         *Overlay       `json:"overlay,omitempty"`
	ColorBackground string         `json:"colorBackground"`
	ColorFont       string         `json:"colorFont"`
	Crosshair       bool           `json:"crosshair"`
	Affine          [4][4]float64  `json:"affine"`
	FlagCoordinates bool           `json:"flagCoordinates"`
	Title           string         `json:"title,omitempty"`
	FlagValue       bool           `json:"flagValue"`
	ColorMap        *ColorMapRef   `json:"colorMap,omitempty"`
	NumSlice        SliceCounts    `json:"numSlice"`
	OnClick         string         `json:"onclick,omitempty"`
	NbDecimals      int            `json:"nbDecimals"`
}
