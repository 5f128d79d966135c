package types

import (
	"fmt"
	"strings"
	"time"
)

type Button uint8

const (
	ButtonInvalid Button = iota
	ButtonA
	ButtonB
	ButtonX
	ButtonY
)

// Poll order of the fallback button scan.
var Buttons = [...]Button{ButtonY, ButtonX, ButtonA, ButtonB}

var buttonNames = [...]string{"Invalid", "A", "B", "X", "Y"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", b)
}

func ParseButton(s string) (Button, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return ButtonA, nil
	case "B":
		return ButtonB, nil
	case "X":
		return ButtonX, nil
	case "Y":
		return ButtonY, nil
	}
	return ButtonInvalid, fmt.Errorf("unknown button=%q valid: a, b, x, y", s)
}

type ButtonEvent struct {
	Source string
	Button Button
	At     time.Time
}

func (e *ButtonEvent) IsZero() bool { return e.Button == ButtonInvalid }

func (e *ButtonEvent) String() string {
	return fmt.Sprintf("ButtonEvent(source=%s button=%s)", e.Source, e.Button.String())
}
