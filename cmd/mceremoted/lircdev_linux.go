//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Run reads the lirc chardev until ctx is canceled. It uses epoll with a
// bounded wait instead of a plain blocking read so cancellation is noticed
// even when the remote stays silent.
func (s *LIRCSource) Run(ctx context.Context) error {
	f, err := os.OpenFile(s.device, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open lirc device: %w", err)
	}
	defer f.Close()

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fd := int(f.Fd())
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add: %w", err)
	}

	s.logger.Info("lirc source starting", "device", s.device)

	epollEvents := make([]unix.EpollEvent, 1)
	buf := make([]byte, 512)

	for {
		if ctx.Err() != nil {
			s.logger.Info("lirc source stopping (context canceled)")
			return nil
		}

		n, err := unix.EpollWait(epfd, epollEvents, lircEpollTimeoutMs)
		if err != nil {
			// Interrupted system call (e.g. SIGINT): retry.
			if err == syscall.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		if n == 0 {
			// Wait timed out; loop around to re-check cancellation.
			continue
		}

		if epollEvents[0].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			return fmt.Errorf("lirc device error/hangup: %s", s.device)
		}

		rn, err := f.Read(buf)
		if err != nil {
			return fmt.Errorf("read %s: %w", s.device, err)
		}

		if err := s.processChunk(ctx, buf[:rn]); err != nil {
			if errors.Is(err, context.Canceled) {
				s.logger.Info("lirc source stopping (context canceled)")
				return nil
			}
			return err
		}
	}
}
