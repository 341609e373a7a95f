// 包含测试数据栈功能的代码。

package txscript

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

// tstCheckScriptError 确保两个错误要么都是 nil，要么都是 Error 类型且错误代码相同。
func tstCheckScriptError(gotErr, wantErr error) error {
	if reflect.TypeOf(gotErr) != reflect.TypeOf(wantErr) {
		return fmt.Errorf("wrong error - got %T (%[1]v), want %T",
			gotErr, wantErr)
	}
	if gotErr == nil {
		return nil
	}

	werr, ok := wantErr.(Error)
	if !ok {
		return fmt.Errorf("unexpected test error type %T", wantErr)
	}

	gotErrorCode := gotErr.(Error).ErrorCode
	if gotErrorCode != werr.ErrorCode {
		return fmt.Errorf("mismatched error code - got %v (%v), want %v",
			gotErrorCode, gotErr, werr.ErrorCode)
	}

	return nil
}

// TestStack 测试所有栈操作是否按预期工作。
func TestStack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		before    [][]byte
		operation func(*stack) error
		err       error
		after     [][]byte
	}{
		{
			"noop",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return nil },
			nil,
			[][]byte{{1}, {2}, {3}},
		},
		{
			"peek underflow",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error {
				_, err := s.PeekByteArray(3)
				return err
			},
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"peek negative index",
			[][]byte{{1}},
			func(s *stack) error {
				_, err := s.PeekBool(-1)
				return err
			},
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"pop",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error {
				val, err := s.PopByteArray()
				if err != nil {
					return err
				}
				if !bytes.Equal(val, []byte{3}) {
					return fmt.Errorf("not equal")
				}
				return nil
			},
			nil,
			[][]byte{{1}, {2}},
		},
		{
			"pop underflow",
			nil,
			func(s *stack) error {
				_, err := s.PopByteArray()
				return err
			},
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"pop bool negative zero",
			[][]byte{{0x00, 0x80}},
			func(s *stack) error {
				val, err := s.PopBool()
				if err != nil {
					return err
				}
				if val {
					return fmt.Errorf("negative zero is true")
				}
				return nil
			},
			nil,
			nil,
		},
		{
			"pop int non-minimal",
			[][]byte{{0x01, 0x00}},
			func(s *stack) error {
				v, err := s.PopInt()
				if err != nil {
					return err
				}
				if v != 1 {
					return fmt.Errorf("%d != 1 on popInt", v)
				}
				return nil
			},
			nil,
			nil,
		},
		{
			"pop int too big",
			[][]byte{{1, 2, 3, 4, 5}},
			func(s *stack) error {
				_, err := s.PopInt()
				return err
			},
			scriptError(ErrNumberTooBig, ""),
			nil,
		},
		{
			"push int",
			nil,
			func(s *stack) error {
				s.PushInt(-1)
				s.PushInt(0)
				s.PushInt(256)
				return nil
			},
			nil,
			[][]byte{{0x81}, nil, {0x00, 0x01}},
		},
		{
			"push bool",
			nil,
			func(s *stack) error {
				s.PushBool(true)
				s.PushBool(false)
				return nil
			},
			nil,
			[][]byte{{1}, nil},
		},
		{
			"nip bottom",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.NipN(2) },
			nil,
			[][]byte{{2}, {3}},
		},
		{
			"nip middle",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.NipN(1) },
			nil,
			[][]byte{{1}, {3}},
		},
		{
			"nip too much",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.NipN(3) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"tuck",
			[][]byte{{1}, {2}},
			func(s *stack) error { return s.Tuck() },
			nil,
			[][]byte{{2}, {1}, {2}},
		},
		{
			"tuck underflow",
			[][]byte{{1}},
			func(s *stack) error { return s.Tuck() },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"drop 2",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.DropN(2) },
			nil,
			[][]byte{{1}},
		},
		{
			"drop too much",
			[][]byte{{1}},
			func(s *stack) error { return s.DropN(2) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"drop 0",
			[][]byte{{1}},
			func(s *stack) error { return s.DropN(0) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"dup 2",
			[][]byte{{1}, {2}},
			func(s *stack) error { return s.DupN(2) },
			nil,
			[][]byte{{1}, {2}, {1}, {2}},
		},
		{
			"dup 3 underflow",
			[][]byte{{1}, {2}},
			func(s *stack) error { return s.DupN(3) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"rot 1",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.RotN(1) },
			nil,
			[][]byte{{2}, {3}, {1}},
		},
		{
			"rot 2",
			[][]byte{{1}, {2}, {3}, {4}, {5}, {6}},
			func(s *stack) error { return s.RotN(2) },
			nil,
			[][]byte{{3}, {4}, {5}, {6}, {1}, {2}},
		},
		{
			"rot underflow",
			[][]byte{{1}, {2}},
			func(s *stack) error { return s.RotN(1) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"swap 2",
			[][]byte{{1}, {2}, {3}, {4}},
			func(s *stack) error { return s.SwapN(2) },
			nil,
			[][]byte{{3}, {4}, {1}, {2}},
		},
		{
			"over 1",
			[][]byte{{1}, {2}},
			func(s *stack) error { return s.OverN(1) },
			nil,
			[][]byte{{1}, {2}, {1}},
		},
		{
			"over 2",
			[][]byte{{1}, {2}, {3}, {4}},
			func(s *stack) error { return s.OverN(2) },
			nil,
			[][]byte{{1}, {2}, {3}, {4}, {1}, {2}},
		},
		{
			"pick 2",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.PickN(2) },
			nil,
			[][]byte{{1}, {2}, {3}, {1}},
		},
		{
			"pick too far",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.PickN(3) },
			scriptError(ErrInvalidStackOperation, ""),
			nil,
		},
		{
			"roll 2",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.RollN(2) },
			nil,
			[][]byte{{2}, {3}, {1}},
		},
		{
			"roll 0",
			[][]byte{{1}, {2}, {3}},
			func(s *stack) error { return s.RollN(0) },
			nil,
			[][]byte{{1}, {2}, {3}},
		},
	}

	for _, test := range tests {
		// 设置初始栈状态并执行测试操作。
		s := stack{}
		for i := range test.before {
			s.PushByteArray(test.before[i])
		}
		err := test.operation(&s)

		if e := tstCheckScriptError(err, test.err); e != nil {
			t.Errorf("%s: %v", test.name, e)
			continue
		}
		if err != nil {
			continue
		}

		if int32(len(test.after)) != s.Depth() {
			t.Errorf("%s: stack depth doesn't match expected: %v "+
				"vs %v", test.name, len(test.after), s.Depth())
			continue
		}

		// test.after 从栈底到栈顶排列。
		for i := range test.after {
			val, err := s.PeekByteArray(s.Depth() - int32(i) - 1)
			if err != nil {
				t.Errorf("%s: can't peek %dth stack entry: %v",
					test.name, i, err)
				break
			}

			if !bytes.Equal(val, test.after[i]) {
				t.Errorf("%s: %dth stack entry doesn't match "+
					"expected: %v vs %v", test.name, i, val,
					test.after[i])
				break
			}
		}
	}
}
