package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

const maxBodyBytes = 1 << 20

// decoder reads presence-aware partial fields from a JSON object body. A
// missing key leaves the field nil; an explicit null clears it. Type errors
// are collected so every bad field is reported at once.
type decoder struct {
	root gjson.Result
	v    perrors.Violations
}

func readBody(w http.ResponseWriter, r *http.Request) (*decoder, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, perrors.ErrBadRequest("request body could not be read").WithCause(err)
	}
	return parseBody(string(data))
}

func parseBody(raw string) (*decoder, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if !gjson.Valid(raw) {
		return nil, perrors.ErrBadRequest("request body is not valid JSON")
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, perrors.ErrBadRequest("request body must be a JSON object")
	}
	return &decoder{root: root}, nil
}

// err returns the collected type errors for entity.
func (d *decoder) err(entity string) error {
	return d.v.Err(entity)
}

func (d *decoder) str(key string) *string {
	r := d.root.Get(key)
	switch {
	case !r.Exists():
		return nil
	case r.Type == gjson.Null:
		return model.Ptr("")
	case r.Type == gjson.String:
		return model.Ptr(r.String())
	}
	d.v.Add(key, "%s must be a string", key)
	return nil
}

// text is str for fields where null carries no meaning and is ignored.
func (d *decoder) text(key string) *string {
	if r := d.root.Get(key); r.Exists() && r.Type == gjson.Null {
		return nil
	}
	return d.str(key)
}

func (d *decoder) boolean(key string) *bool {
	r := d.root.Get(key)
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return nil
	case r.IsBool():
		return model.Ptr(r.Bool())
	}
	d.v.Add(key, "%s must be true or false", key)
	return nil
}

func (d *decoder) number(key string) *float64 {
	r := d.root.Get(key)
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return nil
	case r.Type == gjson.Number:
		return model.Ptr(r.Float())
	}
	d.v.Add(key, "%s must be a number", key)
	return nil
}

func (d *decoder) integer(key string) *int {
	f := d.number(key)
	if f == nil {
		return nil
	}
	if *f != float64(int(*f)) {
		d.v.Add(key, "%s must be a whole number", key)
		return nil
	}
	return model.Ptr(int(*f))
}

// date accepts RFC 3339 timestamps and YYYY-MM-DD dates. Null or an empty
// string yields the zero time, which clears optional dates.
func (d *decoder) date(key string) *time.Time {
	s := d.str(key)
	if s == nil {
		return nil
	}
	if *s == "" {
		return model.Ptr(time.Time{})
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	d.v.Add(key, "%s must be a date such as 2026-01-31 or an RFC 3339 timestamp", key)
	return nil
}

func (d *decoder) array(key string) (gjson.Result, bool) {
	r := d.root.Get(key)
	switch {
	case !r.Exists():
		return r, false
	case r.Type == gjson.Null, r.IsArray():
		return r, true
	}
	d.v.Add(key, "%s must be an array", key)
	return r, false
}

func (d *decoder) stringList(key string) *[]string {
	r, ok := d.array(key)
	if !ok {
		return nil
	}
	out := []string{}
	for i, item := range r.Array() {
		if item.Type != gjson.String {
			d.v.Add(key, "%s[%d] must be a string", key, i)
			continue
		}
		out = append(out, item.String())
	}
	return &out
}

func (d *decoder) members(key string) *[]model.TeamMember {
	r, ok := d.array(key)
	if !ok {
		return nil
	}
	out := []model.TeamMember{}
	for i, item := range r.Array() {
		if !item.IsObject() {
			d.v.Add(key, "%s[%d] must be an object", key, i)
			continue
		}
		m := model.TeamMember{
			UserID:         item.Get("userId").String(),
			Name:           item.Get("name").String(),
			WhatsappNumber: item.Get("whatsappNumber").String(),
			Role:           model.MemberRole(item.Get("role").String()),
		}
		if ts := item.Get("joinedAt").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				m.JoinedAt = t
			}
		}
		out = append(out, m)
	}
	return &out
}

func (d *decoder) mentioned(key string) *[]model.MentionedMember {
	r, ok := d.array(key)
	if !ok {
		return nil
	}
	out := []model.MentionedMember{}
	for i, item := range r.Array() {
		if !item.IsObject() {
			d.v.Add(key, "%s[%d] must be an object", key, i)
			continue
		}
		out = append(out, model.MentionedMember{
			UserID:         item.Get("userId").String(),
			Name:           item.Get("name").String(),
			WhatsappNumber: item.Get("whatsappNumber").String(),
		})
	}
	return &out
}

func decodeTeam(d *decoder) (model.TeamFields, error) {
	f := model.TeamFields{
		Name:        d.text("name"),
		Description: d.str("description"),
		IsPublic:    d.boolean("isPublic"),
		Members:     d.members("members"),
	}
	return f, d.err("team")
}

func decodeProject(d *decoder) (model.ProjectFields, error) {
	f := model.ProjectFields{
		Name:        d.text("name"),
		Description: d.str("description"),
		Team:        d.text("team"),
		Owner:       d.str("owner"),
		StartDate:   d.date("startDate"),
		EndDate:     d.date("endDate"),
		Color:       d.text("color"),
	}
	if s := d.text("status"); s != nil {
		f.Status = model.Ptr(model.ProjectStatus(*s))
	}
	if p := d.text("priority"); p != nil {
		f.Priority = model.Ptr(model.Priority(*p))
	}
	return f, d.err("project")
}

func decodeTask(d *decoder) (model.TaskFields, error) {
	f := model.TaskFields{
		Title:            d.text("title"),
		Description:      d.str("description"),
		Project:          d.text("project"),
		Assignee:         d.str("assignee"),
		DueDate:          d.date("dueDate"),
		EstimatedHours:   d.number("estimatedHours"),
		ActualHours:      d.number("actualHours"),
		Milestone:        d.str("milestone"),
		Tags:             d.stringList("tags"),
		MentionedMembers: d.mentioned("mentionedMembers"),
	}
	if s := d.text("status"); s != nil {
		f.Status = model.Ptr(model.TaskStatus(*s))
	}
	if p := d.text("priority"); p != nil {
		f.Priority = model.Ptr(model.Priority(*p))
	}
	return f, d.err("task")
}

func decodeMilestone(d *decoder) (model.MilestoneFields, error) {
	f := model.MilestoneFields{
		Title:       d.text("title"),
		Description: d.str("description"),
		Project:     d.text("project"),
		Team:        d.text("team"),
		StartDate:   d.date("startDate"),
		DueDate:     d.date("dueDate"),
		Progress:    d.integer("progress"),
		Owner:       d.str("owner"),
	}
	if s := d.text("status"); s != nil {
		f.Status = model.Ptr(model.MilestoneStatus(*s))
	}
	return f, d.err("milestone")
}
