package model

// Merge helpers apply partial patches onto cached records. Merges are
// explicit per field group (shallow merge of named sub-objects, no
// deep-recursive merging) so the semantics stay auditable. Fields absent
// from the patch are preserved; updatedAt is stamped from the event
// timestamp by the caller.

// Apply merges the patch onto o and stamps updatedAt.
func (p OrderPatch) Apply(o Order, updatedAt string) Order {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.PickupAddress != nil {
		o.PickupAddress = *p.PickupAddress
	}
	if p.DropoffAddress != nil {
		o.DropoffAddress = *p.DropoffAddress
	}
	if p.Fare != nil {
		o.Fare = *p.Fare
	}
	if p.CompletedAt != nil {
		o.CompletedAt = *p.CompletedAt
	}
	o.UpdatedAt = updatedAt
	return o
}

// Apply merges the patch onto d and stamps updatedAt.
func (p DriverPatch) Apply(d Driver, updatedAt string) Driver {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Rating != nil {
		d.Rating = *p.Rating
	}
	if p.ShiftStartedAt != nil {
		d.ShiftStartedAt = *p.ShiftStartedAt
	}
	if p.ShiftEndedAt != nil {
		d.ShiftEndedAt = *p.ShiftEndedAt
	}
	d.UpdatedAt = updatedAt
	return d
}

// Apply merges the patch onto v and stamps updatedAt.
func (p VehiclePatch) Apply(v Vehicle, updatedAt string) Vehicle {
	if p.Plate != nil {
		v.Plate = *p.Plate
	}
	if p.Model != nil {
		v.Model = *p.Model
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	v.UpdatedAt = updatedAt
	return v
}

// Apply merges the patch onto i and stamps updatedAt.
func (p IncidentPatch) Apply(i Incident, updatedAt string) Incident {
	if p.Severity != nil {
		i.Severity = *p.Severity
	}
	if p.Category != nil {
		i.Category = *p.Category
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	i.UpdatedAt = updatedAt
	return i
}

// WithAssignment merges the assignment sub-object onto o as a whole.
func (o Order) WithAssignment(a Assignment, updatedAt string) Order {
	o.Driver = &a
	o.UpdatedAt = updatedAt
	return o
}

// WithCancellation merges the cancellation sub-object onto o as a whole.
func (o Order) WithCancellation(c Cancellation, updatedAt string) Order {
	o.Cancellation = &c
	o.Status = "Cancelled"
	o.UpdatedAt = updatedAt
	return o
}

// WithLocation merges the position sub-object onto d as a whole.
func (d Driver) WithLocation(loc Location, updatedAt string) Driver {
	d.Location = &loc
	d.UpdatedAt = updatedAt
	return d
}

// WithLocation merges the position sub-object onto v as a whole.
func (v Vehicle) WithLocation(loc Location, updatedAt string) Vehicle {
	v.Location = &loc
	v.UpdatedAt = updatedAt
	return v
}
