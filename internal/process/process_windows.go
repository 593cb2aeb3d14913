//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

// configureProcAttr passes the command line to cmd.exe verbatim. cmd.exe does
// not understand the backslash escaping exec applies to quoted arguments,
// which would break the quotes of `echo | set /p="..."`.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		CmdLine:       strings.Join(cmd.Args, " "),
	}
}

// killProcessGroup terminates pid. Windows has no process groups in the Unix
// sense, so children started by cmd.exe are not reached.
func killProcessGroup(pid int) error {
	handle, _, err := procOpenProcess.Call(
		uintptr(processTerminate|processQueryInformation),
		uintptr(0),
		uintptr(pid),
	)
	if handle == 0 {
		return fmt.Errorf("failed to open process %d: %v", pid, err)
	}
	defer procCloseHandle.Call(handle)

	success, _, err := procTerminateProcess.Call(handle, uintptr(1))
	if success == 0 {
		return fmt.Errorf("failed to terminate process %d: %v", pid, err)
	}
	return nil
}
