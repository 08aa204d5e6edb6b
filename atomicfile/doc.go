/*
Package atomicfile replaces files without ever leaving a half-written
file behind.

Writing a file in place has several failure modes: Write() can fail
half way, Close() can fail, the process can crash. Each leaves the
destination truncated or corrupt.

File writes to a temporary file in the destination's directory and only
renames it over the destination when everything succeeded:

	func saveSnapshot(path string, data []byte) error {
		w, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// a no-op after a successful Close()
		defer w.RemoveIfNotClosed()

		_, err = w.Write(data)
		if err != nil {
			return err
		}
		return w.Close()
	}

WriteFile does exactly that.
*/
package atomicfile
