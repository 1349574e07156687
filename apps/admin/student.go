package main

import (
	"context"
	"fmt"

	"github.com/mugilan0610/institute-management-system/core/student"
)

// addStudent registers a student the same way the API does.
func (cli *commandLine) addStudent(ctx context.Context, ns student.NewStudent) error {
	reg, err := cli.students.Register(ctx, ns)
	if err != nil {
		return err
	}
	fmt.Printf("Student #%d registered in %q\n", reg.Student.ID, reg.Student.CourseName.String)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	if err := cli.students.SetPassword(ctx, email, pwd); err != nil {
		return err
	}
	fmt.Println("Password updated")
	return nil
}
