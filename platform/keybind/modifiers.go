package keybind

type modifier int

const (
	modCtrl modifier = iota
	modShift
	modAlt
)
