package wire

import (
	"time"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

// Route paths, relative to the API endpoint.
const (
	PathPersons                = "api/persons"
	PathPersonsAddFakeCount    = "api/persons/add-fake-count"
	PathPerson                 = "api/person"
	PathFeedings               = "api/feedings"
	PathFeedingsAdd            = "api/feedings/add"
	PathFeedingsAddFakeCount   = "api/feedings/add-fake-count"
	PathFeedingsRemove         = "api/feedings/remove"
	PathFeed                   = "api/feed"
	PathExpulsions             = "api/expulsions"
	PathExpulsionsAdd          = "api/expulsions/add"
	PathExpulsionsAddFakeCount = "api/expulsions/add-fake-count"
	PathExpulsionsRemove       = "api/expulsions/remove"
	PathExpulsion              = "api/expulsion"
	PathEvents                 = "api/events"
	PathEventsAdd              = "api/events/add"
	PathEventsAddFakeCount     = "api/events/add-fake-count"
	PathEventsRemove           = "api/events/remove"
	PathEvent                  = "api/event"
	PathAdminReset             = "api/admin/reset"
	PathAdminPurgeAllEvents    = "api/admin/purge-all-events"
)

// NameArg names a new person.
type NameArg struct {
	Name string `json:"name"`
}

// CountArg sizes a fake-data batch.
type CountArg struct {
	Count uint32 `json:"count"`
}

// EventKeyArg addresses one event of any kind.
type EventKeyArg struct {
	EventKey ost.EventKey `json:"event_key"`
}

// ModifyPersonArg carries the replacement person for the keyed one.
type ModifyPersonArg struct {
	PersonKey        ost.PersonKey `json:"person_key"`
	SerializedPerson string        `json:"serialized_person"`
}

// AddFeedingArg holds the quantities of a new feeding.
type AddFeedingArg struct {
	PersonKey  ost.PersonKey `json:"person_key"`
	BreastMilk uint32        `json:"breast_milk"`
	Formula    uint32        `json:"formula"`
	Solids     uint32        `json:"solids"`
}

// ModifyFeedingArg replaces quantities and timestamp of a feeding.
type ModifyFeedingArg struct {
	EventKey   ost.EventKey `json:"event_key"`
	TimeStamp  time.Time    `json:"time_stamp"`
	BreastMilk uint32       `json:"breast_milk"`
	Formula    uint32       `json:"formula"`
	Solids     uint32       `json:"solids"`
}

// AddExpulsionArg records a new expulsion.
type AddExpulsionArg struct {
	PersonKey       ost.PersonKey       `json:"person_key"`
	ExpulsionDegree ost.ExpulsionDegree `json:"expulsion_degree" binding:"required"`
}

// ModifyExpulsionArg replaces degree and timestamp of an expulsion.
type ModifyExpulsionArg struct {
	EventKey        ost.EventKey        `json:"event_key"`
	TimeStamp       time.Time           `json:"time_stamp"`
	ExpulsionDegree ost.ExpulsionDegree `json:"expulsion_degree" binding:"required"`
}

// AddEventArg records a new generic event. NewEvent is a pointer so a
// missing field fails binding instead of decoding to the zero variant.
type AddEventArg struct {
	PersonKey ost.PersonKey  `json:"person_key"`
	NewEvent  *ost.EventType `json:"new_event" binding:"required"`
}

// Event returns the payload, or the invalid zero variant when absent.
func (a AddEventArg) Event() ost.EventType {
	return payloadOrZero(a.NewEvent)
}

// ModifyEventArg replaces timestamp and payload of a generic event.
type ModifyEventArg struct {
	EventKey     ost.EventKey   `json:"event_key"`
	TimeStamp    time.Time      `json:"time_stamp"`
	EventPayload *ost.EventType `json:"event_payload" binding:"required"`
}

// Event returns the payload, or the invalid zero variant when absent.
func (a ModifyEventArg) Event() ost.EventType {
	return payloadOrZero(a.EventPayload)
}

func payloadOrZero(event *ost.EventType) ost.EventType {
	if event == nil {
		return ost.EventType{}
	}
	return *event
}
