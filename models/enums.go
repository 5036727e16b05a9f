// ABOUTME: Closed vocabularies for interaction types, pipeline stages and plan statuses
// ABOUTME: Parsers accept both storage keys and the Korean display labels
package models

import (
	"fmt"
	"strings"
)

// InteractionType is the direction of an interaction.
type InteractionType string

const (
	InteractionGive InteractionType = "GIVE"
	InteractionTake InteractionType = "TAKE"
)

func ParseInteractionType(s string) (InteractionType, error) {
	switch InteractionType(strings.ToUpper(strings.TrimSpace(s))) {
	case InteractionGive:
		return InteractionGive, nil
	case InteractionTake:
		return InteractionTake, nil
	}
	return "", fmt.Errorf("invalid interaction type %q (want GIVE or TAKE)", s)
}

// Stage is a relationship-pipeline bucket. Stages are ordered.
type Stage string

const (
	StageFirstMeeting         Stage = "first_meeting"
	StageRelationshipBuilding Stage = "relationship_building"
	StageTrustBuilding        Stage = "trust_building"
	StagePlus                 Stage = "plus"
	StageVIP                  Stage = "vip"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageFirstMeeting,
	StageRelationshipBuilding,
	StageTrustBuilding,
	StagePlus,
	StageVIP,
}

var stageLabels = map[Stage]string{
	StageFirstMeeting:         "첫만남",
	StageRelationshipBuilding: "관계형성",
	StageTrustBuilding:        "신뢰구축",
	StagePlus:                 "포스트맨PLUS",
	StageVIP:                  "VIP",
}

// Label returns the Korean display name of the stage.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// Index returns the position of the stage in the pipeline, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	for _, st := range Stages {
		if string(st) == strings.ToLower(s) || st.Label() == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q", s)
}

// Category tags a postman as a regular or a favorite contact.
type Category string

const (
	CategoryDefault Category = "포스트맨"
	CategoryPlus    Category = "포스트맨PLUS"
)

func ParseCategory(s string) (Category, error) {
	switch strings.TrimSpace(s) {
	case "", string(CategoryDefault), "default":
		return CategoryDefault, nil
	case string(CategoryPlus), "plus":
		return CategoryPlus, nil
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// PlanStatus tracks a weekly goal.
type PlanStatus string

const (
	PlanTodo  PlanStatus = "TODO"
	PlanDoing PlanStatus = "DOING"
	PlanDone  PlanStatus = "DONE"
)

func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PlanTodo:
		return PlanTodo, nil
	case PlanDoing:
		return PlanDoing, nil
	case PlanDone:
		return PlanDone, nil
	}
	return "", fmt.Errorf("invalid plan status %q (want TODO, DOING or DONE)", s)
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminAction names an audited admin operation.
type AdminAction string

const (
	ActionUserUpdate   AdminAction = "USER_UPDATE"
	ActionCreateNotice AdminAction = "CREATE_NOTICE"
	ActionUpdateNotice AdminAction = "UPDATE_NOTICE"
	ActionDeleteNotice AdminAction = "DELETE_NOTICE"
	ActionManualBackup AdminAction = "MANUAL_BACKUP"
)
