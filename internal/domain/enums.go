package domain

// UserRole is the institutional role carried by an authenticated actor.
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleHead      UserRole = "HEAD"
	RoleMISD      UserRole = "MISD"
	RoleDean      UserRole = "DEAN"
	RolePresident UserRole = "PRESIDENT"
)

// ValidRoles lists the roles accepted from tokens and seed data.
var ValidRoles = map[UserRole]bool{
	RoleUser:      true,
	RoleHead:      true,
	RoleMISD:      true,
	RoleDean:      true,
	RolePresident: true,
}

// DocumentKind identifies a trackable document type.
type DocumentKind string

const (
	KindRequest              DocumentKind = "REQUEST"
	KindClearance            DocumentKind = "CLEARANCE"
	KindPassSlip             DocumentKind = "PASS_SLIP"
	KindTravelOrder          DocumentKind = "TRAVEL_ORDER"
	KindAccomplishmentReport DocumentKind = "ACCOMPLISHMENT_REPORT"
)

// GateKinds are the document kinds routed through the two-tier approval gate.
var GateKinds = map[DocumentKind]bool{
	KindClearance:            true,
	KindPassSlip:             true,
	KindTravelOrder:          true,
	KindAccomplishmentReport: true,
}

// RequestStatus is the lifecycle status of a canonical request.
type RequestStatus string

const (
	RequestStatusToReceive RequestStatus = "TO_RECEIVE"
	RequestStatusOngoing   RequestStatus = "ONGOING"
	RequestStatusToRelease RequestStatus = "TO_RELEASE"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusDeclined  RequestStatus = "DECLINED"
)

// ValidRequestStatuses is used to validate list filters.
var ValidRequestStatuses = map[RequestStatus]bool{
	RequestStatusToReceive: true,
	RequestStatusOngoing:   true,
	RequestStatusToRelease: true,
	RequestStatusCompleted: true,
	RequestStatusDeclined:  true,
}

// IsTerminal reports whether no further transitions are permitted.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusDeclined
}

// GateStatus is the lifecycle status of a two-tier gate document.
type GateStatus string

const (
	GateStatusPending             GateStatus = "PENDING"
	GateStatusSentToDean          GateStatus = "SENT TO DEAN"
	GateStatusApprovedByDean      GateStatus = "APPROVED BY DEAN"
	GateStatusApprovedByPresident GateStatus = "APPROVED BY PRESIDENT"
	GateStatusRejected            GateStatus = "REJECTED"
)

// ValidGateStatuses is used to validate list filters.
var ValidGateStatuses = map[GateStatus]bool{
	GateStatusPending:             true,
	GateStatusSentToDean:          true,
	GateStatusApprovedByDean:      true,
	GateStatusApprovedByPresident: true,
	GateStatusRejected:            true,
}

// IsTerminal reports whether no further transitions are permitted.
func (s GateStatus) IsTerminal() bool {
	return s == GateStatusApprovedByPresident || s == GateStatusRejected
}

// Command is an action an actor issues against a document.
type Command string

const (
	CommandCreate   Command = "CREATE"
	CommandReceive  Command = "RECEIVE"
	CommandSign     Command = "SIGN"
	CommandForward  Command = "FORWARD"
	CommandRelease  Command = "RELEASE"
	CommandComplete Command = "COMPLETE"
	CommandDeny     Command = "DENY"
	CommandApprove  Command = "APPROVE"
	CommandReject   Command = "REJECT"
	CommandUpdate   Command = "UPDATE"
	CommandDelete   Command = "DELETE"
)

// RoutingCommands are the commands accepted by ApplyCommand on a request.
var RoutingCommands = map[Command]bool{
	CommandReceive:  true,
	CommandForward:  true,
	CommandRelease:  true,
	CommandComplete: true,
	CommandDeny:     true,
}

// AuditAction is the action recorded on an audit log entry.
type AuditAction string

const (
	AuditCreated   AuditAction = "CREATED"
	AuditReceived  AuditAction = "RECEIVED"
	AuditReviewed  AuditAction = "REVIEWED"
	AuditForwarded AuditAction = "FORWARDED"
	AuditReleased  AuditAction = "RELEASED"
	AuditCompleted AuditAction = "COMPLETED"
	AuditDeclined  AuditAction = "DECLINED"
	AuditApproved  AuditAction = "APPROVED"
	AuditRouted    AuditAction = "ROUTED"
	AuditUpdated   AuditAction = "UPDATED"
	AuditDeleted   AuditAction = "DELETED"
)

// NotificationKind classifies notifications for client-side rendering.
type NotificationKind string

const (
	NotificationRequestUpdate NotificationKind = "REQUEST_UPDATE"
	NotificationSignature     NotificationKind = "SIGNATURE"
	NotificationApproval      NotificationKind = "APPROVAL"
)
