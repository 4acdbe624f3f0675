package model

import (
	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

type Player struct {
	ID   string
	Name string
}

type ClientPlayer struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Color    checkers.Color `json:"color"`
	TimeLeft int            `json:"timeLeft"`
	Ticking  bool           `json:"ticking"`
	Advisor  bool           `json:"advisor,omitempty"`
}

// AdvisorPlayerID occupies the seat played by the advisor.
const AdvisorPlayerID = "advisor"

func (p ClientPlayer) seated() bool { return p.ID != "" }
