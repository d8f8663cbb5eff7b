package server

import (
	"github.com/gin-gonic/gin"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
	"github.com/MarcoPoloResearchLab/ost/internal/wire"
)

const (
	pathChanges       = "/api/changes"
	pathChangesSocket = "/api/changes/ws"
)

func (h *httpHandler) registerRoutes(router gin.IRouter) {
	route := func(path string) string { return "/" + path }

	router.POST(route(wire.PathAdminReset), h.withoutBody(func(r command.Reply) command.Command {
		return command.AdminReset{Reply: r}
	}))
	router.POST(route(wire.PathAdminPurgeAllEvents), h.withoutBody(func(r command.Reply) command.Command {
		return command.AdminPurgeEvents{Reply: r}
	}))

	router.GET(route(wire.PathPersons), h.withoutBody(func(r command.Reply) command.Command {
		return command.GetPersons{Reply: r}
	}))
	router.POST(route(wire.PathPersons), withBody(h, func(r command.Reply, args wire.NameArg) command.Command {
		return command.AddPerson{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathPersonsAddFakeCount), withBody(h, func(r command.Reply, args wire.CountArg) command.Command {
		return command.AddFakePersons{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathPerson), withBody(h, func(r command.Reply, args wire.ModifyPersonArg) command.Command {
		return command.ModifyPerson{Reply: r, Args: args}
	}))

	router.GET(route(wire.PathFeedings), h.withoutBody(func(r command.Reply) command.Command {
		return command.GetFeedings{Reply: r}
	}))
	router.POST(route(wire.PathFeedings), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.GetFeedingByKey{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathFeedingsAdd), withBody(h, func(r command.Reply, args wire.AddFeedingArg) command.Command {
		return command.AddFeeding{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathFeedingsAddFakeCount), withBody(h, func(r command.Reply, args wire.CountArg) command.Command {
		return command.AddFakeFeedings{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathFeed), withBody(h, func(r command.Reply, args wire.ModifyFeedingArg) command.Command {
		return command.ModifyFeeding{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathFeedingsRemove), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.RemoveFeeding{Reply: r, Args: args}
	}))

	router.GET(route(wire.PathExpulsions), h.withoutBody(func(r command.Reply) command.Command {
		return command.GetExpulsions{Reply: r}
	}))
	router.POST(route(wire.PathExpulsions), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.GetExpulsionByKey{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathExpulsionsAdd), withBody(h, func(r command.Reply, args wire.AddExpulsionArg) command.Command {
		return command.AddExpulsion{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathExpulsionsAddFakeCount), withBody(h, func(r command.Reply, args wire.CountArg) command.Command {
		return command.AddFakeExpulsions{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathExpulsion), withBody(h, func(r command.Reply, args wire.ModifyExpulsionArg) command.Command {
		return command.ModifyExpulsion{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathExpulsionsRemove), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.RemoveExpulsion{Reply: r, Args: args}
	}))

	router.GET(route(wire.PathEvents), h.withoutBody(func(r command.Reply) command.Command {
		return command.GetEvents{Reply: r}
	}))
	router.POST(route(wire.PathEvents), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.GetEventByKey{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathEventsAdd), withBody(h, func(r command.Reply, args wire.AddEventArg) command.Command {
		return command.AddEvent{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathEventsAddFakeCount), withBody(h, func(r command.Reply, args wire.CountArg) command.Command {
		return command.AddFakeEvents{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathEvent), withBody(h, func(r command.Reply, args wire.ModifyEventArg) command.Command {
		return command.ModifyEvent{Reply: r, Args: args}
	}))
	router.POST(route(wire.PathEventsRemove), withBody(h, func(r command.Reply, args wire.EventKeyArg) command.Command {
		return command.RemoveEvent{Reply: r, Args: args}
	}))
}
