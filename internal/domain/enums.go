package domain

import "fmt"

// cycle is a total order over the members of a status enum. next wraps from
// the last member back to the first; values outside the cycle restart it.
type cycle[T ~string] []T

func (c cycle[T]) next(v T) T {
	for i, s := range c {
		if s == v {
			return c[(i+1)%len(c)]
		}
	}
	return c[0]
}

func (c cycle[T]) parse(s string) (T, error) {
	for _, v := range c {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q (expected one of %v)", s, []T(c))
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "Not Started"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

var taskStatuses = cycle[TaskStatus]{TaskNotStarted, TaskInProgress, TaskDone}

func (s TaskStatus) Next() TaskStatus { return taskStatuses.next(s) }

func ParseTaskStatus(s string) (TaskStatus, error) { return taskStatuses.parse(s) }

type IssueStatus string

const (
	IssueOpen       IssueStatus = "Open"
	IssueInProgress IssueStatus = "In Progress"
	IssueResolved   IssueStatus = "Resolved"
	IssueClosed     IssueStatus = "Closed"
)

var issueStatuses = cycle[IssueStatus]{IssueOpen, IssueInProgress, IssueResolved, IssueClosed}

func (s IssueStatus) Next() IssueStatus { return issueStatuses.next(s) }

// IsOpen reports whether the issue still needs attention.
func (s IssueStatus) IsOpen() bool { return s != IssueResolved && s != IssueClosed }

func ParseIssueStatus(s string) (IssueStatus, error) { return issueStatuses.parse(s) }

// Severity grades issues and the probability/impact of risks.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severities = cycle[Severity]{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) Next() Severity { return severities.next(s) }

// Rank returns 1..4 for known severities and 0 otherwise.
func (s Severity) Rank() int {
	for i, v := range severities {
		if v == s {
			return i + 1
		}
	}
	return 0
}

func ParseSeverity(s string) (Severity, error) { return severities.parse(s) }

type RiskStatus string

const (
	RiskIdentified RiskStatus = "Identified"
	RiskMitigating RiskStatus = "Mitigating"
	RiskClosed     RiskStatus = "Closed"
)

var riskStatuses = cycle[RiskStatus]{RiskIdentified, RiskMitigating, RiskClosed}

func (s RiskStatus) Next() RiskStatus { return riskStatuses.next(s) }

func ParseRiskStatus(s string) (RiskStatus, error) { return riskStatuses.parse(s) }

type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "Pending"
	ChangeApproved ChangeRequestStatus = "Approved"
	ChangeRejected ChangeRequestStatus = "Rejected"
)

var changeRequestStatuses = cycle[ChangeRequestStatus]{ChangePending, ChangeApproved, ChangeRejected}

func (s ChangeRequestStatus) Next() ChangeRequestStatus { return changeRequestStatuses.next(s) }

type ActionItemStatus string

const (
	ActionOpen ActionItemStatus = "Open"
	ActionDone ActionItemStatus = "Done"
)

var actionItemStatuses = cycle[ActionItemStatus]{ActionOpen, ActionDone}

func (s ActionItemStatus) Next() ActionItemStatus { return actionItemStatuses.next(s) }

type MilestoneStatus string

const (
	MilestonePlanned  MilestoneStatus = "Planned"
	MilestoneAchieved MilestoneStatus = "Achieved"
	MilestoneMissed   MilestoneStatus = "Missed"
)

var milestoneStatuses = cycle[MilestoneStatus]{MilestonePlanned, MilestoneAchieved, MilestoneMissed}

func (s MilestoneStatus) Next() MilestoneStatus { return milestoneStatuses.next(s) }

func ParseMilestoneStatus(s string) (MilestoneStatus, error) { return milestoneStatuses.parse(s) }

type DeploymentStatus string

const (
	DeploymentScheduled  DeploymentStatus = "Scheduled"
	DeploymentInProgress DeploymentStatus = "In Progress"
	DeploymentSucceeded  DeploymentStatus = "Succeeded"
	DeploymentFailed     DeploymentStatus = "Failed"
)

var deploymentStatuses = cycle[DeploymentStatus]{DeploymentScheduled, DeploymentInProgress, DeploymentSucceeded, DeploymentFailed}

func (s DeploymentStatus) Next() DeploymentStatus { return deploymentStatuses.next(s) }

type ProcurementStatus string

const (
	ProcurementRequested ProcurementStatus = "Requested"
	ProcurementOrdered   ProcurementStatus = "Ordered"
	ProcurementDelivered ProcurementStatus = "Delivered"
)

var procurementStatuses = cycle[ProcurementStatus]{ProcurementRequested, ProcurementOrdered, ProcurementDelivered}

func (s ProcurementStatus) Next() ProcurementStatus { return procurementStatuses.next(s) }

type AssetStatus string

const (
	AssetAvailable   AssetStatus = "Available"
	AssetInUse       AssetStatus = "In Use"
	AssetMaintenance AssetStatus = "Maintenance"
	AssetRetired     AssetStatus = "Retired"
)

var assetStatuses = cycle[AssetStatus]{AssetAvailable, AssetInUse, AssetMaintenance, AssetRetired}

func (s AssetStatus) Next() AssetStatus { return assetStatuses.next(s) }

type SystemStatus string

const (
	SystemOperational SystemStatus = "Operational"
	SystemDegraded    SystemStatus = "Degraded"
	SystemDown        SystemStatus = "Down"
)

var systemStatuses = cycle[SystemStatus]{SystemOperational, SystemDegraded, SystemDown}

func (s SystemStatus) Next() SystemStatus { return systemStatuses.next(s) }
