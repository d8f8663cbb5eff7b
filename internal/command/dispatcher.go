package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	nanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
	"github.com/MarcoPoloResearchLab/ost/internal/wire"
)

const (
	changeIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	changeIDLength   = 12
)

// Change describes a successful mutation.
type Change struct {
	ID      string    `json:"id"`
	Command string    `json:"command"`
	At      time.Time `json:"at"`
}

// Notifier receives a Change after every successful mutation. Publish must
// not block.
type Notifier interface {
	Publish(change Change)
}

// Seeder refills a context after an admin reset.
type Seeder func(ost.Context) error

// DispatcherConfig describes the dependencies of a Dispatcher.
type DispatcherConfig struct {
	Context  ost.Context
	Seeder   Seeder
	Notifier Notifier
	Metrics  *Metrics
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Dispatcher is the single owner of a Context.
type Dispatcher struct {
	context  ost.Context
	seeder   Seeder
	notifier Notifier
	metrics  *Metrics
	clock    func() time.Time
	logger   *zap.Logger
}

// NewDispatcher validates the configuration.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Context == nil {
		return nil, errors.New("command: context is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		context:  cfg.Context,
		seeder:   cfg.Seeder,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Run executes commands in arrival order until queue is closed and drained.
func (d *Dispatcher) Run(queue <-chan Command) {
	d.logger.Info("command dispatcher started")
	for cmd := range queue {
		d.metrics.setQueueDepth(len(queue))
		d.Dispatch(cmd)
	}
	d.logger.Info("command dispatcher stopped")
}

// Dispatch executes one command and delivers its reply.
func (d *Dispatcher) Dispatch(cmd Command) {
	started := time.Now()
	result := d.guardedExecute(cmd)
	elapsed := time.Since(started)

	outcome := outcomeRead
	switch {
	case result.err != nil:
		outcome = outcomeError
		d.logger.Warn("command failed", zap.String("command", result.name), zap.Error(result.err))
	case result.mutation:
		outcome = outcomeOK
		d.notify(result.name)
	}
	d.logger.Debug("command executed", zap.String("command", result.name), zap.String("outcome", outcome), zap.Duration("elapsed", elapsed))
	d.metrics.observe(result.name, outcome, elapsed)

	if !cmd.responder().deliver(result.reply) {
		d.logger.Debug("command reply dropped", zap.String("command", result.name))
	}
}

func (d *Dispatcher) notify(name string) {
	if d.notifier == nil {
		return
	}
	id, err := nanoid.Generate(changeIDAlphabet, changeIDLength)
	if err != nil {
		d.logger.Warn("change id generation failed", zap.Error(err))
		return
	}
	d.notifier.Publish(Change{ID: id, Command: name, At: d.clock().UTC()})
}

type result struct {
	name     string
	reply    string
	err      error
	mutation bool
}

func read(name, reply string) result {
	return result{name: name, reply: reply}
}

func unit(name string, err error) result {
	if err != nil {
		return result{name: name, reply: wire.Err(err), err: err, mutation: true}
	}
	return result{name: name, reply: wire.Ok(nil), mutation: true}
}

func created(name string, serialized string, err error) result {
	if err != nil {
		return result{name: name, reply: wire.Err(err), err: err, mutation: true}
	}
	return result{name: name, reply: wire.Ok(serialized), mutation: true}
}

type serializable interface {
	Serialize() string
}

func list[E serializable](items []E) string {
	serialized := make([]string, 0, len(items))
	for _, item := range items {
		serialized = append(serialized, item.Serialize())
	}
	return wire.List(serialized)
}

func option[E serializable](item E, ok bool) string {
	if !ok {
		return wire.None()
	}
	return wire.Some(item.Serialize())
}

// guardedExecute answers a panic inside the context with an Err reply so the
// dispatcher goroutine keeps serving.
func (d *Dispatcher) guardedExecute(cmd Command) (res result) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		err := fmt.Errorf("command: %s panicked: %v", commandName(cmd), recovered)
		d.logger.Error("command panicked", zap.String("command", commandName(cmd)), zap.Any("panic", recovered), zap.Stack("stack"))
		res = result{name: commandName(cmd), reply: wire.Err(err), err: err}
	}()
	return d.execute(cmd)
}

// commandName derives the metric label from the command type, so
// GetFeedingByKey becomes get_feeding_by_key.
func commandName(cmd Command) string {
	if cmd == nil {
		return "unknown"
	}
	typeName := reflect.TypeOf(cmd).Name()
	var builder strings.Builder
	for index, letter := range typeName {
		if unicode.IsUpper(letter) {
			if index > 0 {
				builder.WriteByte('_')
			}
			letter = unicode.ToLower(letter)
		}
		builder.WriteRune(letter)
	}
	return builder.String()
}

func (d *Dispatcher) execute(cmd Command) result {
	c := d.context
	switch cmd := cmd.(type) {
	case AdminReset:
		return unit("admin_reset", d.reset())
	case AdminPurgeEvents:
		return unit("admin_purge_events", c.PurgeAllEvents())

	case GetPersons:
		return read("get_persons", list(c.Persons()))
	case AddPerson:
		person, err := c.AddPerson(cmd.Args.Name)
		return created("add_person", person.Serialize(), err)
	case AddFakePersons:
		return unit("add_fake_persons", c.AddFakePersons(cmd.Args.Count))
	case ModifyPerson:
		return unit("modify_person", d.modifyPerson(cmd.Args))

	case GetFeedings:
		return read("get_feedings", list(c.Feedings()))
	case GetFeedingByKey:
		feeding, ok := c.GetFeedingByKey(cmd.Args.EventKey)
		return read("get_feeding_by_key", option(feeding, ok))
	case AddFeeding:
		person, ok := c.GetPersonByKey(cmd.Args.PersonKey)
		if !ok {
			return created("add_feeding", "", fmt.Errorf("add feeding: %w: id %d", ost.ErrPersonNotFound, cmd.Args.PersonKey.ID))
		}
		feeding, err := c.AddFeeding(person, cmd.Args.BreastMilk, cmd.Args.Formula, cmd.Args.Solids)
		return created("add_feeding", feeding.Serialize(), err)
	case AddFakeFeedings:
		return unit("add_fake_feedings", d.withPersons(func() error { return c.AddFakeFeedings(cmd.Args.Count) }))
	case ModifyFeeding:
		feeding, ok := c.GetFeedingByKey(cmd.Args.EventKey)
		if !ok {
			return unit("modify_feeding", missing(ost.ErrFeedingNotFound, cmd.Args.EventKey))
		}
		feeding.Modify(cmd.Args.BreastMilk, cmd.Args.Formula, cmd.Args.Solids, cmd.Args.TimeStamp)
		return unit("modify_feeding", c.ModifyFeeding(feeding))
	case RemoveFeeding:
		feeding, ok := c.GetFeedingByKey(cmd.Args.EventKey)
		if !ok {
			return unit("remove_feeding", missing(ost.ErrFeedingNotFound, cmd.Args.EventKey))
		}
		return unit("remove_feeding", c.RemoveFeeding(feeding))

	case GetExpulsions:
		return read("get_expulsions", list(c.Expulsions()))
	case GetExpulsionByKey:
		expulsion, ok := c.GetExpulsionByKey(cmd.Args.EventKey)
		return read("get_expulsion_by_key", option(expulsion, ok))
	case AddExpulsion:
		person, ok := c.GetPersonByKey(cmd.Args.PersonKey)
		if !ok {
			return created("add_expulsion", "", fmt.Errorf("add expulsion: %w: id %d", ost.ErrPersonNotFound, cmd.Args.PersonKey.ID))
		}
		expulsion, err := c.AddExpulsion(person, cmd.Args.ExpulsionDegree)
		return created("add_expulsion", expulsion.Serialize(), err)
	case AddFakeExpulsions:
		return unit("add_fake_expulsions", d.withPersons(func() error { return c.AddFakeExpulsions(cmd.Args.Count) }))
	case ModifyExpulsion:
		expulsion, ok := c.GetExpulsionByKey(cmd.Args.EventKey)
		if !ok {
			return unit("modify_expulsion", missing(ost.ErrExpulsionNotFound, cmd.Args.EventKey))
		}
		expulsion.Modify(cmd.Args.ExpulsionDegree, cmd.Args.TimeStamp)
		return unit("modify_expulsion", c.ModifyExpulsion(expulsion))
	case RemoveExpulsion:
		expulsion, ok := c.GetExpulsionByKey(cmd.Args.EventKey)
		if !ok {
			return unit("remove_expulsion", missing(ost.ErrExpulsionNotFound, cmd.Args.EventKey))
		}
		return unit("remove_expulsion", c.RemoveExpulsion(expulsion))

	case GetEvents:
		return read("get_events", list(c.Events()))
	case GetEventByKey:
		event, ok := c.GetEventByKey(cmd.Args.EventKey)
		return read("get_event_by_key", option(event, ok))
	case AddEvent:
		person, ok := c.GetPersonByKey(cmd.Args.PersonKey)
		if !ok {
			return created("add_event", "", fmt.Errorf("add event: %w: id %d", ost.ErrPersonNotFound, cmd.Args.PersonKey.ID))
		}
		event, err := c.AddEvent(person, cmd.Args.Event())
		return created("add_event", event.Serialize(), err)
	case AddFakeEvents:
		return unit("add_fake_events", d.withPersons(func() error { return c.AddFakeEvents(cmd.Args.Count) }))
	case ModifyEvent:
		event, ok := c.GetEventByKey(cmd.Args.EventKey)
		if !ok {
			return unit("modify_event", missing(ost.ErrEventNotFound, cmd.Args.EventKey))
		}
		event.Modify(cmd.Args.TimeStamp, cmd.Args.Event())
		return unit("modify_event", c.ModifyEvent(event))
	case RemoveEvent:
		event, ok := c.GetEventByKey(cmd.Args.EventKey)
		if !ok {
			return unit("remove_event", missing(ost.ErrEventNotFound, cmd.Args.EventKey))
		}
		return unit("remove_event", c.RemoveEvent(event))

	default:
		err := fmt.Errorf("command: unsupported command %T", cmd)
		return result{name: "unknown", reply: wire.Err(err), err: err}
	}
}

func (d *Dispatcher) reset() error {
	if err := d.context.PurgeAllData(); err != nil {
		return err
	}
	if d.seeder == nil {
		return nil
	}
	if err := d.seeder(d.context); err != nil {
		return fmt.Errorf("reseed: %w", err)
	}
	return nil
}

func (d *Dispatcher) modifyPerson(args wire.ModifyPersonArg) error {
	person, err := ost.DeserializePerson(args.SerializedPerson)
	if err != nil {
		return err
	}
	if person.ID != args.PersonKey.ID {
		return fmt.Errorf("modify person: key %d does not match serialized person %d", args.PersonKey.ID, person.ID)
	}
	return d.context.ModifyPerson(person)
}

// withPersons turns the fake-data precondition into an error reply.
func (d *Dispatcher) withPersons(add func() error) error {
	if len(d.context.Persons()) == 0 {
		return ost.ErrNoPersons
	}
	return add()
}

func missing(sentinel error, key ost.EventKey) error {
	return fmt.Errorf("%w: %s", sentinel, key)
}
