package authz

// Action — операция, которую проверяет Gate.
type Action string

const (
	EventCreate     Action = "event.create"
	EventUpdate     Action = "event.update"
	EventTransition Action = "event.transition"
	EventDelete     Action = "event.delete"
	EventRead       Action = "event.read"
	EventJoin       Action = "event.join"
	EventLeave      Action = "event.leave"

	CampCreate Action = "camp.create"
	CampUpdate Action = "camp.update"
	CampDelete Action = "camp.delete"
	CampAssign Action = "camp.assign"

	CasualtyCreate Action = "casualty.create"
	CasualtyUpdate Action = "casualty.update"
	CasualtyDelete Action = "casualty.delete"

	TaskCreate   Action = "task.create"
	TaskUpdate   Action = "task.update"
	TaskReassign Action = "task.reassign"
	TaskCancel   Action = "task.cancel"
	TaskReopen   Action = "task.reopen"

	ResourceRequest Action = "resource.request"
	ResourceConfirm Action = "resource.confirm"

	GroupCreate       Action = "group.create"
	GroupUpdate       Action = "group.update"
	GroupDelete       Action = "group.delete"
	GroupAddMember    Action = "group.add_member"
	GroupRemoveMember Action = "group.remove_member"

	ProfessionalSetRole Action = "professional.set_role"
	AuditRead           Action = "audit.read"
)

type rule func(actor Actor, target Target) Decision

func commanderOnly(Actor, Target) Decision {
	return deny("only a commander may perform this action")
}

func self(actor Actor, target Target) Decision {
	if is(target.SubjectID, actor.ID) {
		return allow()
	}
	return deny("a professional may only act on their own assignment")
}

func sameEvent(actor Actor, target Target) Decision {
	if actor.inEvent(target.EventID) {
		return allow()
	}
	return deny("actor is not assigned to this event")
}

func selfInEvent(actor Actor, target Target) Decision {
	if d := self(actor, target); !d.Allowed {
		return d
	}
	return sameEvent(actor, target)
}

// eventOrCreator — участник события или автор записи (пострадавшие, ресурсы).
func eventOrCreator(actor Actor, target Target) Decision {
	if actor.inEvent(target.EventID) || is(target.CreatorID, actor.ID) {
		return allow()
	}
	return deny("actor is neither assigned to this event nor the record's creator")
}

func creatorOrAssignee(actor Actor, target Target) Decision {
	if is(target.CreatorID, actor.ID) || is(target.AssigneeID, actor.ID) {
		return allow()
	}
	return deny("only the task creator or assignee may modify this task")
}

func creator(actor Actor, target Target) Decision {
	if is(target.CreatorID, actor.ID) {
		return allow()
	}
	return deny("only the creator or a commander may perform this action")
}

func lead(actor Actor, target Target) Decision {
	if is(target.LeadID, actor.ID) {
		return allow()
	}
	return deny("only the group lead or a commander may modify this group")
}

var rules = map[Action]rule{
	EventCreate:         commanderOnly,
	EventUpdate:         commanderOnly,
	EventTransition:     commanderOnly,
	EventDelete:         commanderOnly,
	GroupCreate:         commanderOnly,
	ProfessionalSetRole: commanderOnly,
	AuditRead:           commanderOnly,

	EventJoin:  self,
	EventLeave: self,

	EventRead:       sameEvent,
	CampCreate:      sameEvent,
	CampUpdate:      sameEvent,
	CampDelete:      sameEvent,
	CasualtyCreate:  sameEvent,
	TaskCreate:      sameEvent,
	ResourceRequest: sameEvent,

	CampAssign: selfInEvent,

	CasualtyUpdate:  eventOrCreator,
	CasualtyDelete:  eventOrCreator,
	ResourceConfirm: eventOrCreator,

	TaskUpdate:   creatorOrAssignee,
	TaskReassign: creator,
	TaskCancel:   creator,
	TaskReopen:   creator,

	GroupUpdate:       lead,
	GroupDelete:       lead,
	GroupAddMember:    lead,
	GroupRemoveMember: lead,
}
