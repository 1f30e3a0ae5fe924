package childpoll

import "io"

// readBufferSize is the fixed chunk size for blocking stream reads.
const readBufferSize = 4096

// readPump owns one piped stream of the child. It performs blocking reads
// until end-of-stream or error, pushing a Data event per successful read.
//
// End-of-stream terminates the pump silently. Any other read error pushes a
// single StreamError and terminates; errors are never retried. The pump
// closes its read end on exit.
func readPump(kind StreamKind, r io.ReadCloser, q *eventQueue) {
	defer q.producerDone()
	defer r.Close()

	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			q.push(Data{Stream: kind, Bytes: data})
		}

		if err != nil {
			if err != io.EOF {
				q.push(StreamError{Stream: kind, Err: err})
			}
			return
		}
	}
}
