// Package remote implements ost.Context by forwarding every operation to an
// OST HTTP server. It holds no state besides the endpoint: every read
// re-fetches the person list so views are resolved against current data.
package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
	"github.com/MarcoPoloResearchLab/ost/internal/wire"
)

// Context is the remote proxy.
type Context struct {
	endpoint  string
	transport Transport
	logger    *zap.Logger
}

var _ ost.Context = (*Context)(nil)

// New builds a proxy for endpoint, e.g. http://localhost:3030.
func New(endpoint string, transport Transport, logger *zap.Logger) (*Context, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("remote: endpoint is required")
	}
	if err := transport.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{endpoint: endpoint, transport: transport, logger: logger}, nil
}

func (c *Context) url(path string) string {
	return c.endpoint + "/" + path
}

// post sends a JSON argument and returns the raw reply body.
func (c *Context) post(path string, argument any) (string, error) {
	body, err := json.Marshal(argument)
	if err != nil {
		return "", fmt.Errorf("remote: encode %s argument: %w", path, err)
	}
	return c.transport.Post(c.url(path), string(body))
}

// postUnit sends a mutation whose reply is a unit result envelope.
func (c *Context) postUnit(path string, argument any) error {
	reply, err := c.post(path, argument)
	if err != nil {
		return err
	}
	return wire.DecodeResult(reply, nil)
}

func (c *Context) postEmptyUnit(path string) error {
	reply, err := c.transport.PostEmpty(c.url(path))
	if err != nil {
		return err
	}
	return wire.DecodeResult(reply, nil)
}

// fetchList reads a list route. Transport and decode failures read as an
// empty list and are logged.
func fetchList[R any](c *Context, path string, decode func(string) (R, error)) []R {
	reply, err := c.transport.Get(c.url(path))
	if err != nil {
		c.logger.Warn("remote list fetch failed", zap.String("path", path), zap.Error(err))
		return []R{}
	}
	serialized, err := wire.DecodeList(reply)
	if err != nil {
		c.logger.Warn("remote list decode failed", zap.String("path", path), zap.Error(err))
		return []R{}
	}
	output := make([]R, 0, len(serialized))
	for _, item := range serialized {
		decoded, err := decode(item)
		if err != nil {
			c.logger.Warn("remote list item decode failed", zap.String("path", path), zap.Error(err))
			return []R{}
		}
		output = append(output, decoded)
	}
	return output
}

// resolveList attaches persons to records. A dangling reference reads as an
// empty list.
func resolveList[R any, E any](c *Context, path string, records []R, resolve func([]R, []ost.Person) ([]E, error)) []E {
	resolved, err := resolve(records, c.Persons())
	if err != nil {
		c.logger.Warn("remote list references unknown person", zap.String("path", path), zap.Error(err))
		return []E{}
	}
	return resolved
}

// fetchByKey posts an event key and resolves the optional record.
func fetchByKey[R any, E any](c *Context, path string, key ost.EventKey, decode func(string) (R, error), resolve func(R, []ost.Person) (E, error)) (E, bool) {
	var zero E
	reply, err := c.post(path, wire.EventKeyArg{EventKey: key})
	if err != nil {
		c.logger.Debug("remote key lookup failed", zap.String("path", path), zap.Error(err))
		return zero, false
	}
	serialized, ok, err := wire.DecodeOption(reply)
	if err != nil || !ok {
		return zero, false
	}
	record, err := decode(serialized)
	if err != nil {
		return zero, false
	}
	resolved, err := resolve(record, c.Persons())
	if err != nil {
		return zero, false
	}
	return resolved, true
}

// addEntity posts an add argument and resolves the returned record.
func addEntity[R any, E any](c *Context, path string, argument any, person ost.Person, decode func(string) (R, error), resolve func(R, []ost.Person) (E, error)) (E, error) {
	var zero E
	reply, err := c.post(path, argument)
	if err != nil {
		return zero, err
	}
	var serialized string
	if err := wire.DecodeResult(reply, &serialized); err != nil {
		return zero, err
	}
	record, err := decode(serialized)
	if err != nil {
		return zero, err
	}
	resolved, err := resolve(record, c.Persons())
	if err != nil {
		return zero, fmt.Errorf("%w: id %d", ost.ErrPersonNotFound, person.ID)
	}
	return resolved, nil
}

func filterRecords[R any](records []R, keep func(R) bool) []R {
	output := make([]R, 0, len(records))
	for _, record := range records {
		if keep(record) {
			output = append(output, record)
		}
	}
	return output
}

// PurgeAllData asks the server to reset.
func (c *Context) PurgeAllData() error {
	return c.postEmptyUnit(wire.PathAdminReset)
}

// PurgeAllEvents asks the server to drop every event.
func (c *Context) PurgeAllEvents() error {
	return c.postEmptyUnit(wire.PathAdminPurgeAllEvents)
}

// GetBaseEventByKey dispatches on the key kind.
func (c *Context) GetBaseEventByKey(key ost.EventKey) (ost.EventBase, bool) {
	switch key.Kind {
	case ost.KindFeed:
		if feeding, ok := c.GetFeedingByKey(key); ok {
			return feeding, true
		}
	case ost.KindExpulsion:
		if expulsion, ok := c.GetExpulsionByKey(key); ok {
			return expulsion, true
		}
	case ost.KindEvent:
		if event, ok := c.GetEventByKey(key); ok {
			return event, true
		}
	}
	return nil, false
}

// Persons fetches the person list.
func (c *Context) Persons() []ost.Person {
	return fetchList(c, wire.PathPersons, ost.DeserializePerson)
}

// GetPersonByKey searches the fetched person list.
func (c *Context) GetPersonByKey(key ost.PersonKey) (ost.Person, bool) {
	for _, person := range c.Persons() {
		if person.ID == key.ID {
			return person, true
		}
	}
	return ost.Person{}, false
}

// AddPerson creates a person on the server.
func (c *Context) AddPerson(name string) (ost.Person, error) {
	reply, err := c.post(wire.PathPersons, wire.NameArg{Name: name})
	if err != nil {
		return ost.Person{}, err
	}
	var serialized string
	if err := wire.DecodeResult(reply, &serialized); err != nil {
		return ost.Person{}, err
	}
	return ost.DeserializePerson(serialized)
}

// AddFakePersons asks the server to generate count persons.
func (c *Context) AddFakePersons(count uint32) error {
	return c.postUnit(wire.PathPersonsAddFakeCount, wire.CountArg{Count: count})
}

// ModifyPerson sends the serialized person under its key.
func (c *Context) ModifyPerson(person ost.Person) error {
	return c.postUnit(wire.PathPerson, wire.ModifyPersonArg{
		PersonKey:        person.Key(),
		SerializedPerson: person.Serialize(),
	})
}

func (c *Context) feedRecords() []ost.FeedingRecord {
	return fetchList(c, wire.PathFeedings, ost.DecodeFeedingRecord)
}

// Feedings fetches all feedings and resolves their persons.
func (c *Context) Feedings() []ost.Feeding {
	return resolveList(c, wire.PathFeedings, c.feedRecords(), ost.ResolveFeedings)
}

// FeedingsBy is empty when the person is unknown to the server.
func (c *Context) FeedingsBy(person ost.Person) []ost.Feeding {
	if _, ok := c.GetPersonByKey(person.Key()); !ok {
		return []ost.Feeding{}
	}
	records := filterRecords(c.feedRecords(), func(r ost.FeedingRecord) bool { return r.PersonID == person.ID })
	return resolveList(c, wire.PathFeedings, records, ost.ResolveFeedings)
}

// AddFeeding posts a new feeding for person.
func (c *Context) AddFeeding(person ost.Person, breastMilk, formula, solids uint32) (ost.Feeding, error) {
	argument := wire.AddFeedingArg{PersonKey: person.Key(), BreastMilk: breastMilk, Formula: formula, Solids: solids}
	return addEntity(c, wire.PathFeedingsAdd, argument, person, ost.DecodeFeedingRecord, ost.ResolveFeeding)
}

// AddFakeFeedings fails on the server when no person exists.
func (c *Context) AddFakeFeedings(count uint32) error {
	return c.postUnit(wire.PathFeedingsAddFakeCount, wire.CountArg{Count: count})
}

// ModifyFeeding sends the new quantities and timestamp.
func (c *Context) ModifyFeeding(feeding ost.Feeding) error {
	return c.postUnit(wire.PathFeed, wire.ModifyFeedingArg{
		EventKey:   feeding.Key(),
		TimeStamp:  feeding.TimeStamp,
		BreastMilk: feeding.BreastMilk,
		Formula:    feeding.Formula,
		Solids:     feeding.Solids,
	})
}

// RemoveFeeding deletes the feeding on the server.
func (c *Context) RemoveFeeding(feeding ost.Feeding) error {
	return c.postUnit(wire.PathFeedingsRemove, wire.EventKeyArg{EventKey: feeding.Key()})
}

// GetFeedingByKey reports false when the server has no such feeding.
func (c *Context) GetFeedingByKey(key ost.EventKey) (ost.Feeding, bool) {
	return fetchByKey(c, wire.PathFeedings, key, ost.DecodeFeedingRecord, ost.ResolveFeeding)
}

func (c *Context) expulsionRecords() []ost.ExpulsionRecord {
	return fetchList(c, wire.PathExpulsions, ost.DecodeExpulsionRecord)
}

// Expulsions fetches every expulsion, newest first.
func (c *Context) Expulsions() []ost.Expulsion {
	return resolveList(c, wire.PathExpulsions, c.expulsionRecords(), ost.ResolveExpulsions)
}

// ExpulsionsBy filters the fetched expulsions to one person.
func (c *Context) ExpulsionsBy(person ost.Person) []ost.Expulsion {
	if _, ok := c.GetPersonByKey(person.Key()); !ok {
		return []ost.Expulsion{}
	}
	records := filterRecords(c.expulsionRecords(), func(r ost.ExpulsionRecord) bool { return r.PersonID == person.ID })
	return resolveList(c, wire.PathExpulsions, records, ost.ResolveExpulsions)
}

// AddExpulsion posts a new expulsion for person.
func (c *Context) AddExpulsion(person ost.Person, degree ost.ExpulsionDegree) (ost.Expulsion, error) {
	argument := wire.AddExpulsionArg{PersonKey: person.Key(), ExpulsionDegree: degree}
	return addEntity(c, wire.PathExpulsionsAdd, argument, person, ost.DecodeExpulsionRecord, ost.ResolveExpulsion)
}

// AddFakeExpulsions asks the server for count random expulsions.
func (c *Context) AddFakeExpulsions(count uint32) error {
	return c.postUnit(wire.PathExpulsionsAddFakeCount, wire.CountArg{Count: count})
}

// ModifyExpulsion sends the new degree and timestamp.
func (c *Context) ModifyExpulsion(expulsion ost.Expulsion) error {
	return c.postUnit(wire.PathExpulsion, wire.ModifyExpulsionArg{
		EventKey:        expulsion.Key(),
		TimeStamp:       expulsion.TimeStamp,
		ExpulsionDegree: expulsion.Degree,
	})
}

// RemoveExpulsion deletes the expulsion on the server.
func (c *Context) RemoveExpulsion(expulsion ost.Expulsion) error {
	return c.postUnit(wire.PathExpulsionsRemove, wire.EventKeyArg{EventKey: expulsion.Key()})
}

// GetExpulsionByKey reports false when the lookup fails.
func (c *Context) GetExpulsionByKey(key ost.EventKey) (ost.Expulsion, bool) {
	return fetchByKey(c, wire.PathExpulsions, key, ost.DecodeExpulsionRecord, ost.ResolveExpulsion)
}

func (c *Context) eventRecords() []ost.GenericEventRecord {
	return fetchList(c, wire.PathEvents, ost.DecodeGenericEventRecord)
}

// Events fetches every generic event, newest first.
func (c *Context) Events() []ost.GenericEvent {
	return resolveList(c, wire.PathEvents, c.eventRecords(), ost.ResolveGenericEvents)
}

// EventsBy is empty for a person the server does not know.
func (c *Context) EventsBy(person ost.Person) []ost.GenericEvent {
	if _, ok := c.GetPersonByKey(person.Key()); !ok {
		return []ost.GenericEvent{}
	}
	records := filterRecords(c.eventRecords(), func(r ost.GenericEventRecord) bool { return r.PersonID == person.ID })
	return resolveList(c, wire.PathEvents, records, ost.ResolveGenericEvents)
}

// AddEvent posts a new generic event for person.
func (c *Context) AddEvent(person ost.Person, event ost.EventType) (ost.GenericEvent, error) {
	argument := wire.AddEventArg{PersonKey: person.Key(), NewEvent: &event}
	return addEntity(c, wire.PathEventsAdd, argument, person, ost.DecodeGenericEventRecord, ost.ResolveGenericEvent)
}

// AddFakeEvents fails on the server when no person exists.
func (c *Context) AddFakeEvents(count uint32) error {
	return c.postUnit(wire.PathEventsAddFakeCount, wire.CountArg{Count: count})
}

// ModifyEvent sends the new payload and timestamp.
func (c *Context) ModifyEvent(event ost.GenericEvent) error {
	return c.postUnit(wire.PathEvent, wire.ModifyEventArg{
		EventKey:     event.Key(),
		TimeStamp:    event.TimeStamp,
		EventPayload: &event.Event,
	})
}

// RemoveEvent deletes the event on the server.
func (c *Context) RemoveEvent(event ost.GenericEvent) error {
	return c.postUnit(wire.PathEventsRemove, wire.EventKeyArg{EventKey: event.Key()})
}

// GetEventByKey resolves a key through the server.
func (c *Context) GetEventByKey(key ost.EventKey) (ost.GenericEvent, bool) {
	return fetchByKey(c, wire.PathEvents, key, ost.DecodeGenericEventRecord, ost.ResolveGenericEvent)
}
