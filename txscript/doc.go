/*
txscript 包实现了比特币交易脚本语言的一个子集。

比特币使用的脚本语言的完整描述可以在 https://en.bitcoin.it/wiki/Script 找到。
以下仅作为快速概述，提供有关如何使用该包的信息。

# 脚本概述

比特币交易脚本是用基于栈、类似 FORTH 的语言编写的。
脚本由命令组成：命令要么是一次数据推送，要么是一个操作码。
脚本从左到右处理，并且故意不提供循环。

解锁脚本（script_sig）与锁定脚本（script_pubkey）通过 Add 拼接后，以签名哈希 z 调用 Evaluate 执行：

	combined := scriptSig.Add(scriptPubKey)
	if err := combined.Evaluate(z); err != nil {
		// 脚本无效
	}

执行结束时栈不为空且栈顶为真，则脚本有效。

# 操作码

操作码表中的每个操作码都带有一个类别，执行循环按类别向处理程序提供它需要的上下文：
数据栈、备用栈、剩余的命令队列、签名哈希 z，或者由 WithTxContext 提供的交易字段。

OP_CHECKMULTISIG 与 OP_CHECKMULTISIGVERIFY 尚未支持，执行时返回 ErrUnsupportedOpcode，
调用者可以用 IsUnsupported 将其与脚本本身无效区分开。

# 支付到脚本哈希

当数据推送之后剩余的命令恰好是 OP_HASH160 <20 字节> OP_EQUAL 时，
被推送的元素被当作赎回脚本：它的 HASH160 必须与脚本哈希一致，随后它被解析并追加到待执行的命令中。

# 错误

该包返回的错误类型为 txscript.Error。
这允许调用者通过检查 ErrorCode 字段以编程方式确定特定错误，同时仍然提供带有上下文信息的错误消息。
执行失败的描述以失败操作码的名称开头。
还提供了一个名为 IsErrorCode 的便捷函数，允许调用者轻松检查特定的错误代码。
*/
package txscript
