package media

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// ExitCallback function signature of callback invoked exactly once when a capture
// subprocess exits. The error is nil when the subprocess ended gracefully.
type ExitCallback func(err error)

// ProcessSpec parameters for launching one capture subprocess
type ProcessSpec struct {
	// Name label identifying the subprocess in logs
	Name string
	// Binary executable to launch
	Binary string
	// Args full argument list
	Args []string
	// PipeStdin whether the subprocess reads data from its standard input
	PipeStdin bool
	// OnExit exit notification callback
	OnExit ExitCallback
}

// Process handle to one running capture subprocess
type Process interface {
	/*
		Kill forcibly terminate the subprocess. Safe to call after exit.

			@param ctxt context.Context - execution context
	*/
	Kill(ctxt context.Context) error

	/*
		WriteStdin write data into the subprocess's standard input. Only valid when the
		process was launched with PipeStdin.

			@param data []byte - data to write
			@returns bytes written
	*/
	WriteStdin(data []byte) (int, error)

	/*
		Done channel closed once the subprocess has exited
	*/
	Done() <-chan struct{}
}

// ProcessLauncher launches capture subprocesses. Implementations deliver the exit
// of a subprocess asynchronously through the spec's ExitCallback; Launch itself
// only fails when the subprocess could not be spawned.
type ProcessLauncher interface {
	/*
		Launch spawn a new capture subprocess

			@param ctxt context.Context - execution context
			@param spec ProcessSpec - subprocess parameters
			@returns handle to the running subprocess
	*/
	Launch(ctxt context.Context, spec ProcessSpec) (Process, error)
}

// execLauncherImpl implements ProcessLauncher on top of os/exec
type execLauncherImpl struct {
	goutils.Component
}

/*
NewExecLauncher define a new os/exec backed subprocess launcher

	@returns new ProcessLauncher
*/
func NewExecLauncher() (ProcessLauncher, error) {
	return &execLauncherImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "media", "component": "exec-launcher"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
	}, nil
}

// execProcessImpl implements Process
type execProcessImpl struct {
	goutils.Component
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
	lock  sync.Mutex
}

func (l *execLauncherImpl) Launch(ctxt context.Context, spec ProcessSpec) (Process, error) {
	logTags := l.GetLogTagsForContext(ctxt)

	cmd := exec.Command(spec.Binary, spec.Args...)

	procLogTags := log.Fields{}
	for lKey, lVal := range logTags {
		procLogTags[lKey] = lVal
	}
	procLogTags["instance"] = spec.Name

	process := &execProcessImpl{
		Component: goutils.Component{
			LogTags: procLogTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		cmd:  cmd,
		done: make(chan struct{}),
	}

	if spec.PipeStdin {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			log.WithError(err).WithFields(procLogTags).Error("Unable to open subprocess stdin")
			return nil, err
		}
		process.stdin = stdin
	}

	if err := cmd.Start(); err != nil {
		log.WithError(err).WithFields(procLogTags).Error("Subprocess failed to spawn")
		return nil, err
	}

	log.
		WithFields(procLogTags).
		WithField("pid", cmd.Process.Pid).
		Infof("Subprocess started: %s %s", spec.Binary, strings.Join(spec.Args, " "))

	// Deliver the exit asynchronously
	go func() {
		err := cmd.Wait()
		close(process.done)
		if err != nil {
			log.WithError(err).WithFields(procLogTags).Info("Subprocess exited abnormally")
		} else {
			log.WithFields(procLogTags).Info("Subprocess ended")
		}
		if spec.OnExit != nil {
			spec.OnExit(err)
		}
	}()

	return process, nil
}

func (p *execProcessImpl) Kill(ctxt context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	select {
	case <-p.done:
		// Already exited
		return nil
	default:
	}

	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	return p.cmd.Process.Kill()
}

func (p *execProcessImpl) WriteStdin(data []byte) (int, error) {
	if p.stdin == nil {
		return 0, fmt.Errorf("subprocess was not launched with stdin piping")
	}
	return p.stdin.Write(data)
}

func (p *execProcessImpl) Done() <-chan struct{} {
	return p.done
}
