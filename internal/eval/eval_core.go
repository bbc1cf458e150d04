package eval

import (
	"fmt"
)

// CycleMarker is a special value used to detect initialization cycles
type CycleMarker struct {
	Name string
}

func (c *CycleMarker) String() string { return fmt.Sprintf("<cycle-marker:%s>", c.Name) }
func (c *CycleMarker) Type() string   { return "CycleMarker" }

