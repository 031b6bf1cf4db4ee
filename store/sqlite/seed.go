/*
seed.go - Demo data for local development

PURPOSE:
  Loads a small but complete demo school so the API can be exercised
  immediately: one tenant, one campus, a student class, a teacher roster,
  a staff roster, and actors covering every role.

USAGE:
  Wired behind POST /api/admin/seed. Safe to call repeatedly - every
  write is an upsert.
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/warp/attendance-engine/attendance"
)

// Seed loads the demo tenant. Idempotent.
func (s *Store) Seed(ctx context.Context) error {
	persons := []Person{
		// Class 5A students
		{ID: "stu-amara", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Amara Okafor", Active: true},
		{ID: "stu-bilal", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Bilal Hassan", Active: true},
		{ID: "stu-chloe", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Chloe Martin", Active: true},
		{ID: "stu-diego", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Diego Ramirez", Active: true},

		// Campus teachers
		{ID: "tch-farah", Tenant: "greenfield", Campus: "main", Kind: attendance.KindTeacher, Name: "Farah Aziz", Active: true},
		{ID: "tch-george", Tenant: "greenfield", Campus: "main", Kind: attendance.KindTeacher, Name: "George Mensah", Active: true},
		{ID: "tch-harriet", Tenant: "greenfield", Campus: "main", Kind: attendance.KindTeacher, Name: "Harriet Bloom", Active: true},

		// Campus staff
		{ID: "stf-ismail", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStaff, Name: "Ismail Karim", Active: true},
		{ID: "stf-joan", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStaff, Name: "Joan Whitfield", Active: true},
	}

	for _, p := range persons {
		if err := s.SavePerson(ctx, p); err != nil {
			return fmt.Errorf("seed person %s: %w", p.ID, err)
		}
	}

	users := []User{
		{ID: "usr-admin", Name: "Site Admin", Role: RoleAdmin},
		{ID: "usr-owner", Name: "School Owner", Role: RoleOwner},
		{ID: "tch-farah", Name: "Farah Aziz", Role: RoleTeacher},
		{ID: "stf-ismail", Name: "Ismail Karim", Role: RoleStaff},
	}

	for _, u := range users {
		if err := s.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	return nil
}
