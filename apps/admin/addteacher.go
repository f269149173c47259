package main

import (
	"context"

	"github.com/trezcool/shule/core/school"
)

// addTeacher creates a teacher account with its profile; the registration
// validation (password policy included) applies.
func (cli *commandLine) addTeacher(uname, email, pwd string) error {
	reg := school.TeacherRegistration{
		Username:  uname,
		Email:     email,
		Password1: pwd,
		Password2: pwd,
	}
	_, err := cli.schoolSvc.RegisterTeacher(context.Background(), reg)
	return err
}
