package command

import (
	"github.com/MarcoPoloResearchLab/ost/internal/wire"
)

// Command is one request to the dispatcher. The set is closed; Dispatcher
// switches on the concrete type.
type Command interface {
	responder() Responder
}

// Reply carries the responder every command answers on.
type Reply struct {
	To Responder
}

func (r Reply) responder() Responder {
	return r.To
}

// AdminReset purges all data and reseeds when a Seeder is configured.
type AdminReset struct{ Reply }

// AdminPurgeEvents deletes every event and keeps persons.
type AdminPurgeEvents struct{ Reply }

// GetPersons lists all persons.
type GetPersons struct{ Reply }

// AddPerson creates an active person.
type AddPerson struct {
	Reply
	Args wire.NameArg
}

// AddFakePersons generates persons with unique names.
type AddFakePersons struct {
	Reply
	Args wire.CountArg
}

// ModifyPerson replaces a person with its serialized form.
type ModifyPerson struct {
	Reply
	Args wire.ModifyPersonArg
}

// GetFeedings lists feedings, newest first.
type GetFeedings struct{ Reply }

// GetFeedingByKey answers with an optional feeding.
type GetFeedingByKey struct {
	Reply
	Args wire.EventKeyArg
}

// AddFeeding records a feeding stamped now.
type AddFeeding struct {
	Reply
	Args wire.AddFeedingArg
}

// AddFakeFeedings needs at least one person.
type AddFakeFeedings struct {
	Reply
	Args wire.CountArg
}

// ModifyFeeding rewrites quantities and timestamp.
type ModifyFeeding struct {
	Reply
	Args wire.ModifyFeedingArg
}

// RemoveFeeding deletes one feeding.
type RemoveFeeding struct {
	Reply
	Args wire.EventKeyArg
}

// GetExpulsions lists expulsions, newest first.
type GetExpulsions struct{ Reply }

// GetExpulsionByKey answers with an optional expulsion.
type GetExpulsionByKey struct {
	Reply
	Args wire.EventKeyArg
}

// AddExpulsion records an expulsion stamped now.
type AddExpulsion struct {
	Reply
	Args wire.AddExpulsionArg
}

// AddFakeExpulsions needs at least one person.
type AddFakeExpulsions struct {
	Reply
	Args wire.CountArg
}

// ModifyExpulsion rewrites degree and timestamp.
type ModifyExpulsion struct {
	Reply
	Args wire.ModifyExpulsionArg
}

// RemoveExpulsion deletes one expulsion.
type RemoveExpulsion struct {
	Reply
	Args wire.EventKeyArg
}

// GetEvents lists generic events, newest first.
type GetEvents struct{ Reply }

// GetEventByKey answers with an optional generic event.
type GetEventByKey struct {
	Reply
	Args wire.EventKeyArg
}

// AddEvent records a generic event stamped now.
type AddEvent struct {
	Reply
	Args wire.AddEventArg
}

// AddFakeEvents needs at least one person.
type AddFakeEvents struct {
	Reply
	Args wire.CountArg
}

// ModifyEvent rewrites payload and timestamp.
type ModifyEvent struct {
	Reply
	Args wire.ModifyEventArg
}

// RemoveEvent deletes one generic event.
type RemoveEvent struct {
	Reply
	Args wire.EventKeyArg
}
