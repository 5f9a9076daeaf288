//go:build linux

package injection

import (
	"time"

	"golang.org/x/sys/unix"
)

// sourceMask selects the record types requested for every watch
const sourceMask = unix.IN_CREATE |
	unix.IN_DELETE |
	unix.IN_MODIFY |
	unix.IN_CLOSE_WRITE |
	unix.IN_ATTRIB |
	unix.IN_MOVED_FROM |
	unix.IN_MOVED_TO |
	unix.IN_DELETE_SELF |
	unix.IN_MOVE_SELF

// notifySource owns the single inotify descriptor for the watcher's
// lifetime, plus the epoll descriptor used to wait on it. All methods are
// called from the watch loop only.
type notifySource struct {
	fd      int
	epfd    int
	closed  bool
	readBuf []byte
}

// newNotifySource initializes the inotify channel. Failure here is fatal for
// the watcher: without the descriptor there is no data source.
func newNotifySource(bufferSize int) (*notifySource, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, newError("inotifyInit", "", err)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, newError("epollCreate", "", err)
	}

	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		unix.Close(epfd)
		unix.Close(fd)
		return nil, newError("epollCtl", "", err)
	}

	return &notifySource{
		fd:      fd,
		epfd:    epfd,
		readBuf: make([]byte, bufferSize),
	}, nil
}

// waitReady blocks until the descriptor is readable or the timeout expires.
// It returns false on timeout, the loop's normal idle case. An interrupted
// wait resumes with the time remaining, so one call never outlasts its
// timeout however often signals land.
func (s *notifySource) waitReady(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	events := make([]unix.EpollEvent, 1)
	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		n, err := unix.EpollWait(s.epfd, events, int(remaining.Milliseconds()))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, newError("epollWait", "", err)
		}
		return n > 0, nil
	}
}

// drainRaw reads every currently buffered byte, stopping when the descriptor
// reports it would block
func (s *notifySource) drainRaw() ([]byte, error) {
	var out []byte
	for {
		n, err := unix.Read(s.fd, s.readBuf)
		if n > 0 {
			out = append(out, s.readBuf[:n]...)
		}
		if err != nil {
			if err == unix.EAGAIN {
				return out, nil
			}
			if err == unix.EINTR {
				continue
			}
			return out, newError("read", "", err)
		}
		if n <= 0 {
			return out, nil
		}
	}
}

// addWatch installs a watch on a directory and returns its handle
func (s *notifySource) addWatch(path string) (int32, error) {
	wd, err := unix.InotifyAddWatch(s.fd, path, sourceMask)
	if err != nil {
		return -1, newError("addWatch", path, err)
	}
	return int32(wd), nil
}

// removeWatch drops a watch by handle; the kernel answers with an IN_IGNORED
// record, so registry eviction happens in the loop
func (s *notifySource) removeWatch(wd int32) {
	_, _ = unix.InotifyRmWatch(s.fd, uint32(wd))
}

// close releases both descriptors, which also releases every watch; safe to
// call more than once
func (s *notifySource) close() {
	if s.closed {
		return
	}
	s.closed = true
	_ = unix.Close(s.epfd)
	_ = unix.Close(s.fd)
}
