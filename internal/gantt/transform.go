package gantt

import (
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/models"
)

// Options control how records become tasks
type Options struct {
	Group    constants.GroupMode
	Color    constants.ColorMode
	Editable bool
	// Collapsed lists container ids whose children start hidden
	Collapsed map[string]bool
}

// Transform converts schedule records into timeline tasks. In flat mode the
// output holds one leaf per record in input order. In grouped mode each
// partition yields one container, emitted in order of first appearance and
// immediately followed by its leaves.
func Transform(records []models.ScheduleRecord, opts Options) []Task {
	switch opts.Group {
	case constants.GroupOrder:
		return grouped(records, opts, GroupOrder, func(r models.ScheduleRecord) string {
			return models.StringValue(r.OrderNumber, constants.UnknownOrderKey)
		})
	case constants.GroupEquipmentGroup:
		return grouped(records, opts, GroupEquipmentGroup, func(r models.ScheduleRecord) string {
			return models.StringValue(r.EquipmentGroupName, constants.UnclassifiedGroupKey)
		})
	default:
		tasks := make([]Task, 0, len(records))
		for _, r := range records {
			tasks = append(tasks, newLeaf(r, "", opts))
		}
		return tasks
	}
}

func grouped(records []models.ScheduleRecord, opts Options, group GroupType, keyOf func(models.ScheduleRecord) string) []Task {
	var keys []string
	partitions := make(map[string][]models.ScheduleRecord)
	for _, r := range records {
		k := keyOf(r)
		if _, seen := partitions[k]; !seen {
			keys = append(keys, k)
		}
		partitions[k] = append(partitions[k], r)
	}

	tasks := make([]Task, 0, len(records)+len(keys))
	for _, k := range keys {
		members := partitions[k]
		c := &Container{
			id:       EncodeContainerID(group, k),
			group:    group,
			key:      k,
			start:    members[0].StartDateTime,
			end:      members[0].EndDateTime,
			children: len(members),
		}
		c.label = containerLabel(group, k, members[0])
		c.ChildrenHidden = opts.Collapsed[c.id]
		for _, r := range members[1:] {
			if r.StartDateTime.Before(c.start) {
				c.start = r.StartDateTime
			}
			if r.EndDateTime.After(c.end) {
				c.end = r.EndDateTime
			}
		}

		tasks = append(tasks, c)
		for _, r := range members {
			tasks = append(tasks, newLeaf(r, c.id, opts))
		}
	}
	return tasks
}

func containerLabel(group GroupType, key string, first models.ScheduleRecord) string {
	if group == GroupOrder {
		return key + " (" + models.StringValue(first.ProductName, constants.PlaceholderText) + ")"
	}
	return key
}

func newLeaf(r models.ScheduleRecord, parent string, opts Options) *Leaf {
	meta := Meta{
		Process:        models.StringValue(r.ProcessName, constants.PlaceholderProcessName),
		Order:          models.StringValue(r.OrderNumber, ""),
		Customer:       models.StringValue(r.CustomerName, ""),
		Product:        models.StringValue(r.ProductName, ""),
		Equipment:      models.StringValue(r.EquipmentName, ""),
		EquipmentGroup: models.StringValue(r.EquipmentGroupName, ""),
	}
	return &Leaf{
		id:       EncodeLeafID(r.ID),
		record:   r,
		parent:   parent,
		label:    BuildLabel(meta.Process, meta.Order, meta.Customer),
		color:    ColorFor(opts.Color, meta.Product, models.StringValue(r.ProcessName, "")),
		editable: opts.Editable,
		meta:     meta,
	}
}
