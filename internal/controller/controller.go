// Package controller runs the per-tick scan cycle: poll buttons, advance
// recognizers, route actions to the relay service, expire impulses and run
// the dependency teardown.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksobolewski/multirelay-controller/internal/button"
	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/datadog"
	"github.com/ksobolewski/multirelay-controller/internal/model"
	"github.com/ksobolewski/multirelay-controller/internal/relayservice"
	"github.com/ksobolewski/multirelay-controller/internal/telemetry"
)

type Controller struct {
	buttons []*button.Button
	svc     *relayservice.Service
	clk     *clock.Clock
	pub     telemetry.Publisher // nil disables event publishing
	poll    time.Duration
}

func New(buttons []*button.Button, svc *relayservice.Service, clk *clock.Clock, pub telemetry.Publisher, poll time.Duration) *Controller {
	return &Controller{buttons: buttons, svc: svc, clk: clk, pub: pub, poll: poll}
}

// Tick runs one scan cycle. Buttons are processed in configuration order;
// recognizers are independent and only interact through the relay service.
func (c *Controller) Tick() {
	stateChanged := false

	for _, b := range c.buttons {
		changed, err := b.Update()
		if err != nil {
			log.Error().Err(err).Int("sensor_id", b.SensorID()).Msg("Failed to read button input")
			continue
		}
		level := b.ReadLevel()
		ev := b.Recognize(changed, level, c.clk.Now())
		action := b.Action(changed, ev)
		if !b.ActionChanged(action) {
			continue
		}
		b.SetLastAction(action)
		if action == model.NoAction {
			continue
		}

		log.Debug().
			Int("sensor_id", b.SensorID()).
			Str("action", action.String()).
			Msg("Button action recognized")
		datadog.Count("button.action", 1,
			"action:"+action.String(), fmt.Sprintf("sensor_id:%d", b.SensorID()))

		if num := b.RelayNum(action); num >= 0 {
			if c.svc.ChangeState(num, b.DesiredState(c.svc.State(num))) {
				stateChanged = true
			}
		}
		if b.Exposed() && c.pub != nil {
			if err := c.pub.PublishButtonAction(b.SensorID(), action, time.Now()); err != nil {
				log.Warn().Err(err).Int("sensor_id", b.SensorID()).Msg("Failed to publish button action")
			}
		}
	}

	if c.svc.ProcessImpulses() {
		stateChanged = true
	}
	if stateChanged || c.svc.AnyDependentOn() {
		c.svc.TurnOffDependent()
	}
}

// Run ticks until the context is canceled, then turns off any relay still
// mid-pulse before returning.
func (c *Controller) Run(ctx context.Context) {
	ticker := c.clk.Ticker(c.poll)
	defer ticker.Stop()

	log.Info().
		Dur("poll", c.poll).
		Int("buttons", len(c.buttons)).
		Int("relays", c.svc.Len()).
		Msg("Starting controller loop")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping controller loop")
			c.svc.QuenchImpulses()
			return
		case <-ticker.Chan():
			c.Tick()
		}
	}
}
