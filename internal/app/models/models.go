package models

// RoleType defines the staff user role type
type RoleType string

const (
	RoleLawyer RoleType = "LAWYER"
	RoleStaff  RoleType = "STAFF"
	RoleAdmin  RoleType = "ADMIN"
)

// ParticipantType identifies what kind of actor a conversation participant is
type ParticipantType string

const (
	ParticipantLawyer ParticipantType = "lawyer"
	ParticipantStaff  ParticipantType = "staff"
	ParticipantClient ParticipantType = "client"
	ParticipantAdmin  ParticipantType = "admin"
)

// ParticipantRole defines what a participant may do inside a conversation
type ParticipantRole string

const (
	RoleOwner       ParticipantRole = "owner"
	RoleModerator   ParticipantRole = "moderator"
	RoleParticipant ParticipantRole = "participant"
)
