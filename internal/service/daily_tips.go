package service

import (
	"math/rand"
	"sync"
)

var dailyTips = []string{
	"Take three deep breaths and notice how you feel in this moment.",
	"Remember: it's okay to not be okay. You're taking steps to care for yourself.",
	"Small progress is still progress. Every step counts on your wellness journey.",
	"Try the 5-4-3-2-1 grounding technique: notice 5 things you see, 4 you hear, 3 you touch, 2 you smell, 1 you taste.",
	"Your feelings are valid. Allow yourself to experience them without judgment.",
}

// TipPicker elige consejos del dia con una fuente aleatoria explicita.
type TipPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTipPicker(rnd *rand.Rand) *TipPicker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &TipPicker{rnd: rnd}
}

func (p *TipPicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dailyTips[p.rnd.Intn(len(dailyTips))]
}
