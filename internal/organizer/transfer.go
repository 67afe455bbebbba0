package organizer

import (
	"fmt"
	"os"

	"avshelf/internal/fileutil"
	"avshelf/internal/services"
)

// transfer copies or moves src to dst according to safe mode.
func (o *Organizer) transfer(src, dst string) (Operation, error) {
	if o.opts.SafeMode {
		if err := o.copyFile(src, dst); err != nil {
			return OperationCopy, services.Wrap(services.ErrTransient, "organizer", "copy file", src, err)
		}
		return OperationCopy, nil
	}
	if err := fileutil.MoveFile(src, dst); err != nil {
		return OperationMove, services.Wrap(services.ErrTransient, "organizer", "move file", src, err)
	}
	return OperationMove, nil
}

// verifyTransfer compares MD5 digests of src and dst. A source that no longer
// exists, as after a move, passes without reading dst.
func verifyTransfer(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	srcSum, err := fileutil.FileMD5(src)
	if err != nil {
		return services.Wrap(services.ErrIntegrity, "organizer", "hash source", src, err)
	}
	dstSum, err := fileutil.FileMD5(dst)
	if err != nil {
		return services.Wrap(services.ErrIntegrity, "organizer", "hash destination", dst, err)
	}
	if srcSum != dstSum {
		return services.Wrap(services.ErrIntegrity, "organizer", "verify transfer",
			fmt.Sprintf("checksum mismatch: source %s, destination %s", srcSum, dstSum), nil)
	}
	return nil
}
