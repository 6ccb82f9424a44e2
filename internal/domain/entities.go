package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Dates on form-bound entities are plain "2006-01-02" strings; an empty
// string means unset.
const DateLayout = "2006-01-02"

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Priority     string     `json:"priority"`
	OwnerID      Ref        `json:"ownerId"`
	MilestoneID  Ref        `json:"milestoneId"`
	StartDate    string     `json:"startDate"`
	DueDate      string     `json:"dueDate"`
	Progress     int        `json:"progress"`
	Dependencies []string   `json:"dependencies"`
}

func (t Task) EntityID() string { return t.ID }
func (t Task) WithEntityID(id string) Task { t.ID = id; return t }
func (t Task) clone() Task { t.Dependencies = slices.Clone(t.Dependencies); return t }

type Issue struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Severity      Severity    `json:"severity"`
	Status        IssueStatus `json:"status"`
	ReportedBy    Ref         `json:"reportedBy"`
	AssigneeID    Ref         `json:"assigneeId"`
	RelatedTaskID Ref         `json:"relatedTaskId"`
	OpenedAt      string      `json:"openedAt"`
	ResolvedAt    string      `json:"resolvedAt"`
}

func (i Issue) EntityID() string { return i.ID }
func (i Issue) WithEntityID(id string) Issue { i.ID = id; return i }

type Member struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

func (m Member) EntityID() string { return m.ID }
func (m Member) WithEntityID(id string) Member { m.ID = id; return m }

type Document struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	URL        string `json:"url"`
	Version    string `json:"version"`
	UploadedBy Ref    `json:"uploadedBy"`
	UploadedAt string `json:"uploadedAt"`
}

func (d Document) EntityID() string { return d.ID }
func (d Document) WithEntityID(id string) Document { d.ID = id; return d }

type Policy struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Body          string `json:"body"`
	EffectiveDate string `json:"effectiveDate"`
	OwnerID       Ref    `json:"ownerId"`
}

func (p Policy) EntityID() string { return p.ID }
func (p Policy) WithEntityID(id string) Policy { p.ID = id; return p }

type Risk struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Probability   Severity   `json:"probability"`
	Impact        Severity   `json:"impact"`
	Status        RiskStatus `json:"status"`
	OwnerID       Ref        `json:"ownerId"`
	Mitigation    string     `json:"mitigation"`
	RelatedTaskID Ref        `json:"relatedTaskId"`
}

func (r Risk) EntityID() string { return r.ID }
func (r Risk) WithEntityID(id string) Risk { r.ID = id; return r }

// Score is probability rank times impact rank (0..16).
func (r Risk) Score() int { return r.Probability.Rank() * r.Impact.Rank() }

type ChangeRequest struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	RequestedBy        Ref                 `json:"requestedBy"`
	Status             ChangeRequestStatus `json:"status"`
	CostImpact         decimal.Decimal     `json:"costImpact"`
	ScheduleImpactDays int                 `json:"scheduleImpactDays"`
	SubmittedAt        string              `json:"submittedAt"`
}

func (c ChangeRequest) EntityID() string { return c.ID }
func (c ChangeRequest) WithEntityID(id string) ChangeRequest { c.ID = id; return c }

type ActionItem struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	OwnerID   Ref              `json:"ownerId"`
	DueDate   string           `json:"dueDate"`
	Status    ActionItemStatus `json:"status"`
	MeetingID Ref              `json:"meetingId"`
}

func (a ActionItem) EntityID() string { return a.ID }
func (a ActionItem) WithEntityID(id string) ActionItem { a.ID = id; return a }

type Decision struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
	DecidedBy Ref    `json:"decidedBy"`
	DecidedAt string `json:"decidedAt"`
	MeetingID Ref    `json:"meetingId"`
}

func (d Decision) EntityID() string { return d.ID }
func (d Decision) WithEntityID(id string) Decision { d.ID = id; return d }

type Meeting struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Location  string   `json:"location"`
	Attendees []string `json:"attendees"`
	Notes     string   `json:"notes"`
}

func (m Meeting) EntityID() string { return m.ID }
func (m Meeting) WithEntityID(id string) Meeting { m.ID = id; return m }
func (m Meeting) clone() Meeting { m.Attendees = slices.Clone(m.Attendees); return m }

type Communication struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Channel string `json:"channel"`
	From    string `json:"from"`
	To      string `json:"to"`
	SentAt  string `json:"sentAt"`
	Summary string `json:"summary"`
}

func (c Communication) EntityID() string { return c.ID }
func (c Communication) WithEntityID(id string) Communication { c.ID = id; return c }

type Milestone struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	DueDate string          `json:"dueDate"`
	Status  MilestoneStatus `json:"status"`
}

func (m Milestone) EntityID() string { return m.ID }
func (m Milestone) WithEntityID(id string) Milestone { m.ID = id; return m }

type Deployment struct {
	ID          string           `json:"id"`
	Version     string           `json:"version"`
	Environment string           `json:"environment"`
	SystemID    Ref              `json:"systemId"`
	ScheduledAt string           `json:"scheduledAt"`
	Status      DeploymentStatus `json:"status"`
	Notes       string           `json:"notes"`
}

func (d Deployment) EntityID() string { return d.ID }
func (d Deployment) WithEntityID(id string) Deployment { d.ID = id; return d }

type Vendor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Rating   int    `json:"rating"`
}

func (v Vendor) EntityID() string { return v.ID }
func (v Vendor) WithEntityID(id string) Vendor { v.ID = id; return v }

type Procurement struct {
	ID         string            `json:"id"`
	Item       string            `json:"item"`
	VendorID   Ref               `json:"vendorId"`
	Quantity   int               `json:"quantity"`
	Amount     decimal.Decimal   `json:"amount"`
	Status     ProcurementStatus `json:"status"`
	OrderedAt  string            `json:"orderedAt"`
	ExpectedAt string            `json:"expectedAt"`
}

func (p Procurement) EntityID() string { return p.ID }
func (p Procurement) WithEntityID(id string) Procurement { p.ID = id; return p }

type Asset struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Tag        string      `json:"tag"`
	Category   string      `json:"category"`
	Status     AssetStatus `json:"status"`
	AssignedTo Ref         `json:"assignedTo"`
	Location   string      `json:"location"`
}

func (a Asset) EntityID() string { return a.ID }
func (a Asset) WithEntityID(id string) Asset { a.ID = id; return a }

type System struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Version string       `json:"version"`
	Status  SystemStatus `json:"status"`
	OwnerID Ref          `json:"ownerId"`
}

func (s System) EntityID() string { return s.ID }
func (s System) WithEntityID(id string) System { s.ID = id; return s }

type SiteLog struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Weather  string `json:"weather"`
	Crew     int    `json:"crew"`
	Summary  string `json:"summary"`
	AuthorID Ref    `json:"authorId"`
}

func (l SiteLog) EntityID() string { return l.ID }
func (l SiteLog) WithEntityID(id string) SiteLog { l.ID = id; return l }

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

func (n Notification) EntityID() string { return n.ID }
func (n Notification) WithEntityID(id string) Notification { n.ID = id; return n }

// Activity is one entry of the append-only audit feed.
type Activity struct {
	ID         string     `json:"id"`
	Action     string     `json:"action"`
	TargetType EntityType `json:"entityType"`
	TargetID   string     `json:"entityId"`
	Actor      string     `json:"actor"`
	At         time.Time  `json:"at"`
}

func (a Activity) EntityID() string { return a.ID }
func (a Activity) WithEntityID(id string) Activity { a.ID = id; return a }
